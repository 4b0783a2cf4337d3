package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Swind/go-block-pool/core"
	"github.com/pkg/errors"
)

// errInjected is returned by the task selected with --fail-task.
var errInjected = errors.New("injected task failure")

// Summary describes a finished workload run.
type Summary struct {
	Name        string
	Capacity    int
	Tasks       int
	Completed   int64
	PeakWorking int
	Duration    time.Duration
	Err         error
}

func (s Summary) String() string {
	status := "ok"
	if s.Err != nil {
		status = s.Err.Error()
	}
	return fmt.Sprintf("pool %s: capacity=%d tasks=%d completed=%d peak_working=%d duration=%s status=%s",
		s.Name, s.Capacity, s.Tasks, s.Completed, s.PeakWorking, s.Duration.Round(time.Millisecond), status)
}

// runWorkload submits conf.Tasks synthetic tasks to a fresh pool. onStart, if
// non-nil, sees the pool before any task is submitted.
func runWorkload(ctx context.Context, conf *Config, poolConfig *core.PoolConfig, onStart func(p *core.Pool)) Summary {
	summary := Summary{Name: poolConfig.Name, Capacity: conf.Capacity, Tasks: conf.Tasks}
	startedAt := time.Now()

	var pool *core.Pool
	err := core.RunWithConfig(ctx, conf.Capacity, poolConfig, func(ctx context.Context, p *core.Pool) error {
		pool = p
		if onStart != nil {
			onStart(p)
		}
		for i := range conf.Tasks {
			p.SubmitNamed(fmt.Sprintf("task-%d", i), workloadTask(conf, i))
		}
		return nil
	})

	summary.Duration = time.Since(startedAt)
	summary.Err = err
	if pool != nil {
		stats := pool.Stats()
		// The init task is counted by the pool but is not part of the workload.
		summary.Completed = max(stats.Completed-1, 0)
		summary.PeakWorking = stats.PeakWorking
	}
	return summary
}

func workloadTask(conf *Config, i int) core.Task {
	return func(ctx context.Context) error {
		if i == conf.FailTask {
			return errors.Wrapf(errInjected, "task %d", i)
		}
		if err := sleep(ctx, conf.WorkDuration); err != nil {
			return err
		}
		if conf.BlockEvery > 0 && i%conf.BlockEvery == 0 {
			return core.BlockFunc(ctx, func(ctx context.Context) error {
				return sleep(ctx, conf.BlockDuration)
			})
		}
		return nil
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
