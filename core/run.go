package core

import (
	"context"
	"time"
)

// Run starts a pool with the given capacity, submits init as its first task
// and blocks until the pool is quiescent, a task fails, or ctx is done.
//
// It returns nil on quiescence and the first task failure otherwise. When
// ctx is done first, every live worker is cancelled and ctx.Err() is
// returned. In every case Run waits for the worker goroutines to exit before
// returning (see PoolConfig.ShutdownTimeout).
//
// Task contexts carry ctx's values but not its deadline or cancellation; the
// pool cancels them itself once the outcome is settled.
func Run(ctx context.Context, capacity int, init InitFunc) error {
	return RunWithConfig(ctx, capacity, DefaultPoolConfig(), init)
}

// RunWithConfig is Run with explicit configuration. A nil config uses
// DefaultPoolConfig.
func RunWithConfig(ctx context.Context, capacity int, config *PoolConfig, init InitFunc) error {
	p, err := newPool(ctx, capacity, config)
	if err != nil {
		return err
	}
	return p.run(ctx, init)
}

func (p *Pool) run(ctx context.Context, init InitFunc) error {
	startedAt := time.Now()
	defer p.cancel()

	p.logger.Debug("pool starting", F("pool", p.name), F("capacity", p.capacity))

	p.SubmitNamed("init", func(ctx context.Context) error {
		if init == nil {
			return nil
		}
		return init(ctx, p)
	})

	var err error
	select {
	case <-p.outcome.done():
		err = p.outcome.result()
	case <-ctx.Done():
		if p.abort(ctx.Err()) {
			err = ctx.Err()
		} else {
			// The outcome won the race.
			err = p.outcome.result()
		}
	}

	p.cancel()
	p.join()

	stats := p.Stats()
	p.logger.Info("pool finished",
		F("pool", p.name),
		F("duration", time.Since(startedAt)),
		F("dispatched", stats.Dispatched),
		F("completed", stats.Completed),
		F("peak_working", stats.PeakWorking),
		F("error", err),
	)
	return err
}

// join waits for worker goroutines to exit, bounded by shutdownTimeout.
func (p *Pool) join() {
	if p.shutdownTimeout <= 0 {
		p.wg.Wait()
		return
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		p.logger.Warn("detaching workers after shutdown timeout",
			F("pool", p.name), F("timeout", p.shutdownTimeout))
	}
}
