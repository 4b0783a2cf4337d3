package core

import (
	"context"
	"time"
)

// Block runs action on the calling goroutine after giving the worker's
// capacity slot to other queued work, then waits to get a slot back before
// returning action's result. Resumption is queued ahead of every normal task.
//
// Block must be called with the context of a task running on a pool;
// otherwise it returns ErrNotInPool without running action. Calling Block
// again while already blocked returns ErrAlreadyBlocked. Block may run on a
// helper goroutine holding the task's context, but the task must not return
// before that Block call does; the slot it gives back belongs to the task.
//
// If the pool tears down while the worker waits for its slot, Block returns
// ErrPoolTerminated unless action itself failed.
func Block[T any](ctx context.Context, action func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	p, w := currentWorker(ctx)
	if p == nil {
		return zero, ErrNotInPool
	}
	if !w.parked.CompareAndSwap(false, true) {
		return zero, ErrAlreadyBlocked
	}
	defer w.parked.Store(false)

	parkedAt := time.Now()
	p.park(w)

	resumed := false
	defer func() {
		if !resumed {
			// action panicked or called Goexit: take the slot back before
			// unwinding so the counters stay balanced if the task recovers.
			_ = p.unpark(w)
		}
		blocked := time.Since(parkedAt)
		w.blockedNanos.Add(int64(blocked))
		p.metrics.RecordBlockDuration(p.name, blocked)
		p.logger.Debug("worker resumed",
			F("pool", p.name), F("worker", w.id.String()), F("blocked", blocked))
	}()

	v, err := action(ctx)
	resumeErr := p.unpark(w)
	resumed = true

	if err != nil {
		return v, err
	}
	return v, resumeErr
}

// BlockFunc is Block for actions without a result.
func BlockFunc(ctx context.Context, action func(ctx context.Context) error) error {
	_, err := Block(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, action(ctx)
	})
	return err
}

// park releases the worker's slot and counts it as blocked.
func (p *Pool) park(w *worker) {
	p.logger.Debug("worker parked", F("pool", p.name), F("worker", w.id.String()))
	p.step(func(s *poolState) {
		s.working--
		s.blocked++
	}, nil)
}

// unpark queues the worker's continuation at the priority front and waits
// until step hands the slot back.
func (p *Pool) unpark(w *worker) error {
	resume := make(chan struct{})
	p.step(func(s *poolState) {
		s.queue.PushPriority(TaskItem{Name: "resume", resume: resume})
	}, nil)

	select {
	case <-resume:
		return nil
	case <-w.ctx.Done():
		return ErrPoolTerminated
	}
}
