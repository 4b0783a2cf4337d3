package core

import "context"

// =============================================================================
// Context Helper
// =============================================================================

type workerKeyType struct{}

var workerKey workerKeyType

// workerRef is stored in every worker context.
type workerRef struct {
	pool   *Pool
	worker *worker
}

func withWorker(ctx context.Context, p *Pool, w *worker) context.Context {
	return context.WithValue(ctx, workerKey, workerRef{pool: p, worker: w})
}

func currentWorker(ctx context.Context) (*Pool, *worker) {
	if ctx == nil {
		return nil, nil
	}
	if v, ok := ctx.Value(workerKey).(workerRef); ok {
		return v.pool, v.worker
	}
	return nil, nil
}

// PoolFromContext returns the pool running the current task, or nil.
func PoolFromContext(ctx context.Context) *Pool {
	p, _ := currentWorker(ctx)
	return p
}

// WorkerIDFromContext returns the identity of the worker running the
// current task.
func WorkerIDFromContext(ctx context.Context) (WorkerID, bool) {
	_, w := currentWorker(ctx)
	if w == nil {
		return WorkerID{}, false
	}
	return w.id, true
}

// Submit enqueues task on the pool running the current task.
func Submit(ctx context.Context, task Task) error {
	p := PoolFromContext(ctx)
	if p == nil {
		return ErrNotInPool
	}
	p.Submit(task)
	return nil
}
