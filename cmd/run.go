package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Swind/go-block-pool/core"
	"github.com/Swind/go-block-pool/logging"
	promexporter "github.com/Swind/go-block-pool/observability/prometheus"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	pollInterval          = time.Second
	metricsServerShutdown = 5 * time.Second
)

func newRunCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := NewConfig()
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic workload through a pool.",
		Long: `run starts a pool, submits --tasks tasks to it and waits until all of them
finished or one of them failed. Every --block-every'th task blocks for
--block-duration after working for --work-duration, handing its slot to
other tasks in the meantime. A one-line summary is printed to stdout.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), conf, stdout, stderr)
		},
	}
	conf.Flags(runCmd.Flags())
	return runCmd
}

func runCommand(ctx context.Context, conf *Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	zl, err := logging.New(stderr, conf.LogLevel, false)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	zl = zl.With(zap.String("pool", conf.Name))
	logger := logging.NewZapLogger(zl)

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	exporter, err := promexporter.NewMetricsExporter("blockpool", reg, promexporter.ExporterOptions{})
	if err != nil {
		return err
	}
	poller, err := promexporter.NewSnapshotPoller(reg, pollInterval)
	if err != nil {
		return err
	}

	if conf.MetricsAddr != "" {
		stop, err := serveMetrics(conf.MetricsAddr, reg, zl)
		if err != nil {
			return err
		}
		defer stop()
	}

	poolConfig := &core.PoolConfig{
		Name:            conf.Name,
		ShutdownTimeout: conf.ShutdownTimeout,
		Logger:          logger,
		Metrics:         exporter,
	}

	summary := runWorkload(ctx, conf, poolConfig, func(p *core.Pool) {
		poller.AddPool(p.Name(), p)
		poller.Start(ctx)
	})
	poller.Stop()

	fmt.Fprintln(stdout, summary)
	return summary.Err
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prom.Registry, zl *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("metrics server stopped", zap.Error(err))
		}
	}()
	zl.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsServerShutdown)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zl.Warn("metrics server shutdown", zap.Error(err))
		}
	}, nil
}
