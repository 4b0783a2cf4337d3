package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-block-pool/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshotProvider provides current pool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports pool Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	poolWorkers     *prom.GaugeVec
	poolWorking     *prom.GaugeVec
	poolBlocked     *prom.GaugeVec
	poolPeakWorking *prom.GaugeVec
	poolQueued      *prom.GaugeVec
	poolDispatched  *prom.GaugeVec
	poolCompleted   *prom.GaugeVec
	poolRunning     *prom.GaugeVec

	stateMu sync.Mutex
	cancel  context.CancelFunc // nil while stopped
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string, labels ...string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "blockpool",
			Name:      name,
			Help:      help,
		}, labels)
	}

	p := &SnapshotPoller{
		interval:        interval,
		pools:           make(map[string]PoolSnapshotProvider),
		poolWorkers:     gauge("pool_workers", "Live worker goroutines per pool.", "pool"),
		poolWorking:     gauge("pool_working", "Workers running a task per pool.", "pool"),
		poolBlocked:     gauge("pool_blocked", "Workers parked in Block per pool.", "pool"),
		poolPeakWorking: gauge("pool_peak_working", "Highest concurrent working count per pool.", "pool"),
		poolQueued:      gauge("pool_queued", "Queued items per pool and sequence.", "pool", "sequence"),
		poolDispatched:  gauge("pool_dispatched", "Dispatched task count snapshot.", "pool"),
		poolCompleted:   gauge("pool_completed", "Completed task count snapshot.", "pool"),
		poolRunning:     gauge("pool_running", "Pool running state (1=running, 0=finished).", "pool"),
	}

	for _, vec := range []**prom.GaugeVec{
		&p.poolWorkers,
		&p.poolWorking,
		&p.poolBlocked,
		&p.poolPeakWorking,
		&p.poolQueued,
		&p.poolDispatched,
		&p.poolCompleted,
		&p.poolRunning,
	} {
		registered, err := registerCollector(reg, *vec)
		if err != nil {
			return nil, err
		}
		*vec = registered
	}
	return p, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// RemovePool stops polling a pool. Its last exported values are kept.
func (p *SnapshotPoller) RemovePool(name string) {
	if p == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	delete(p.pools, name)
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.cancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(pollCtx, p.done)
}

// Stop stops periodic polling and takes a final snapshot; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.stateMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.collectOnce()
		select {
		case <-ctx.Done():
			p.collectOnce()
			return
		case <-ticker.C:
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolWorking.WithLabelValues(name).Set(float64(stats.Working))
		p.poolBlocked.WithLabelValues(name).Set(float64(stats.Blocked))
		p.poolPeakWorking.WithLabelValues(name).Set(float64(stats.PeakWorking))
		p.poolQueued.WithLabelValues(name, "priority").Set(float64(stats.QueuedPriority))
		p.poolQueued.WithLabelValues(name, "normal").Set(float64(stats.QueuedNormal))
		p.poolDispatched.WithLabelValues(name).Set(float64(stats.Dispatched))
		p.poolCompleted.WithLabelValues(name).Set(float64(stats.Completed))
		if stats.Running {
			p.poolRunning.WithLabelValues(name).Set(1)
		} else {
			p.poolRunning.WithLabelValues(name).Set(0)
		}
	}
}
