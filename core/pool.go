package core

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultPoolName = "pool"

	// maxAllowedCapacity is the maximum allowed value for the capacity parameter.
	maxAllowedCapacity = 10000
)

// worker is a goroutine bound to at most one task at a time.
type worker struct {
	id     WorkerID
	ctx    context.Context
	cancel context.CancelFunc

	// parked is set while the worker sits in Block.
	parked atomic.Bool

	// blockedNanos accumulates Block time for the current task. Block may be
	// called from a helper goroutine of the task, so it is atomic.
	blockedNanos atomic.Int64
}

// poolState is the shared scheduling record. It is only read or written by
// step, fail, abort and Stats, all under Pool.mu.
type poolState struct {
	workers map[WorkerID]*worker
	working int
	blocked int
	queue   *TaskQueue
}

func newPoolState() *poolState {
	return &poolState{
		workers: make(map[WorkerID]*worker),
		queue:   NewTaskQueue(),
	}
}

// Pool runs submitted tasks on at most capacity concurrently working
// goroutines. A Pool exists for the duration of one Run; it is handed to the
// InitFunc and is reachable from every task context via PoolFromContext.
type Pool struct {
	name            string
	capacity        int
	shutdownTimeout time.Duration

	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler

	// ctx is the parent of every worker context. It keeps the values of the
	// caller's context but not its cancellation: workers are only cancelled
	// by fail or abort, after the outcome is settled.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       *poolState // nil once the run finished, failed or was interrupted
	peakWorking int

	outcome *outcome
	wg      sync.WaitGroup
	history *executionHistory

	dispatched atomic.Int64
	completed  atomic.Int64
}

func newPool(ctx context.Context, capacity int, config *PoolConfig) (*Pool, error) {
	if capacity < 1 || capacity > maxAllowedCapacity {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d not in [1, %d]", capacity, maxAllowedCapacity)
	}
	if config == nil {
		config = DefaultPoolConfig()
	}

	p := &Pool{
		name:            config.Name,
		capacity:        capacity,
		shutdownTimeout: config.ShutdownTimeout,
		logger:          config.Logger,
		metrics:         config.Metrics,
		panicHandler:    config.PanicHandler,
		state:           newPoolState(),
		outcome:         newOutcome(),
		history:         newExecutionHistory(config.HistoryCapacity),
	}

	// Use defaults if not provided
	if p.name == "" {
		p.name = defaultPoolName
	}
	if p.logger == nil {
		p.logger = NewDefaultLogger()
	}
	if p.metrics == nil {
		p.metrics = &NilMetrics{}
	}
	if p.panicHandler == nil {
		p.panicHandler = &DefaultPanicHandler{Logger: p.logger}
	}

	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return p, nil
}

// Name returns the name of the pool
func (p *Pool) Name() string {
	return p.name
}

// Capacity returns the maximum number of concurrently working tasks.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Done is closed once the run reached its outcome.
func (p *Pool) Done() <-chan struct{} {
	return p.outcome.done()
}

// Err returns the run's outcome once Done is closed: nil on quiescence, the
// first task failure, or the interruption cause.
func (p *Pool) Err() error {
	return p.outcome.result()
}

// Stats returns current observability data for this pool.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PoolStats{
		Name:        p.name,
		Capacity:    p.capacity,
		PeakWorking: p.peakWorking,
		Dispatched:  p.dispatched.Load(),
		Completed:   p.completed.Load(),
	}
	if s := p.state; s != nil {
		stats.Running = true
		stats.Workers = len(s.workers)
		stats.Working = s.working
		stats.Blocked = s.blocked
		stats.QueuedPriority = s.queue.PriorityLen()
		stats.QueuedNormal = s.queue.NormalLen()
	}
	return stats
}

// RecentTasks returns completed task execution records in newest-first order.
func (p *Pool) RecentTasks(limit int) []TaskExecutionRecord {
	return p.history.Recent(limit)
}

// Submit enqueues task in the normal sequence. It never blocks and never
// reports the task's result; a failing task fails the whole run.
func (p *Pool) Submit(task Task) {
	p.SubmitNamed("", task)
}

// SubmitNamed submits a task with a caller-provided display name.
func (p *Pool) SubmitNamed(name string, task Task) {
	if task == nil {
		p.reject(RejectNilTask)
		return
	}

	item := TaskItem{
		ID:         GenerateTaskID(),
		Name:       resolveTaskName(task, name),
		Task:       task,
		enqueuedAt: time.Now(),
	}
	queued := false
	p.step(func(s *poolState) {
		s.queue.PushNormal(item)
		queued = true
	}, nil)
	if !queued {
		p.reject(RejectPoolFinished)
	}
}

func (p *Pool) reject(reason string) {
	p.metrics.RecordTaskRejected(p.name, reason)
	p.logger.Debug("task rejected", F("pool", p.name), F("reason", reason))
}

// step applies adjust to the pool state and restores the scheduling
// invariant. It is the only place that dispatches work or declares the run
// quiescent.
//
// self is the worker calling step after finishing a task, or nil. The first
// task that becomes runnable is handed back to self instead of a new
// goroutine; the returned bool reports whether that happened. If not, self
// is deregistered.
func (p *Pool) step(adjust func(s *poolState), self *worker) (TaskItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	if s == nil {
		return TaskItem{}, false
	}
	if adjust != nil {
		adjust(s)
	}

	var next TaskItem
	handoff := false
	for s.working < p.capacity {
		item, ok := s.queue.Pop()
		if !ok {
			break
		}
		s.working++

		switch {
		case item.isResume():
			// The parked worker takes the slot back on its own goroutine.
			s.blocked--
			close(item.resume)
		case self != nil && !handoff:
			next, handoff = item, true
			p.dispatched.Add(1)
		default:
			p.spawnLocked(s, item)
		}
	}
	if s.working > p.peakWorking {
		p.peakWorking = s.working
	}

	if self != nil && !handoff {
		delete(s.workers, self.id)
	}

	p.metrics.RecordQueueDepth(p.name, s.queue.PriorityLen(), s.queue.NormalLen())

	if s.working == 0 && s.blocked == 0 && s.queue.IsEmpty() {
		p.state = nil
		p.outcome.set(nil)
	}
	return next, handoff
}

// spawnLocked registers a new worker before its goroutine starts, so a
// failing sibling can always find it.
func (p *Pool) spawnLocked(s *poolState, item TaskItem) {
	w := p.newWorker()
	s.workers[w.id] = w
	p.dispatched.Add(1)
	p.wg.Add(1)
	p.logger.Debug("worker spawned",
		F("pool", p.name), F("worker", w.id.String()), F("task", item.Name))
	go p.work(w, item)
}

func (p *Pool) newWorker() *worker {
	ctx, cancel := context.WithCancel(p.ctx)
	w := &worker{
		id:     generateWorkerID(),
		cancel: cancel,
	}
	w.ctx = withWorker(ctx, p, w)
	return w
}

// work is the worker loop: run the task, then give the slot back through
// step, which may hand over the next task.
func (p *Pool) work(w *worker, item TaskItem) {
	defer p.wg.Done()
	defer w.cancel()

	for {
		if w.ctx.Err() != nil {
			// Torn down between dispatch and start.
			return
		}
		if err := p.execute(w, item); err != nil {
			p.fail(w, item, err)
			return
		}

		next, ok := p.step(func(s *poolState) {
			s.working--
		}, w)
		if !ok {
			return
		}
		item = next
	}
}

// execute runs one task and converts panics and Goexit into errors.
func (p *Pool) execute(w *worker, item TaskItem) (err error) {
	w.blockedNanos.Store(0)
	startedAt := time.Now()
	returned := false
	panicked := false

	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			stack := debug.Stack()
			p.panicHandler.HandlePanic(w.ctx, p.name, w.id, rec, stack)
			p.metrics.RecordTaskPanic(p.name, rec)
			err = newPanicError(rec, stack)
		} else if !returned {
			err = ErrTaskExited
		}

		finishedAt := time.Now()
		p.completed.Add(1)
		p.metrics.RecordTaskDuration(p.name, finishedAt.Sub(startedAt))
		if err != nil {
			p.metrics.RecordTaskFailure(p.name)
		}
		p.history.Add(TaskExecutionRecord{
			TaskID:     item.ID,
			Name:       item.Name,
			PoolName:   p.name,
			WorkerID:   w.id,
			QueuedFor:  startedAt.Sub(item.enqueuedAt),
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Duration:   finishedAt.Sub(startedAt),
			Blocked:    time.Duration(w.blockedNanos.Load()),
			Failed:     err != nil,
			Panicked:   panicked,
		})

		if !returned && !panicked {
			// runtime.Goexit: the goroutine is unwinding and work never
			// sees a return value.
			p.fail(w, item, err)
		}
	}()

	err = item.Task(w.ctx)
	returned = true
	return err
}

// fail turns a task failure into the run's outcome and cancels every other
// live worker. Failures after the first are discarded.
func (p *Pool) fail(w *worker, item TaskItem, err error) {
	p.mu.Lock()
	s := p.state
	if s == nil {
		p.mu.Unlock()
		p.logger.Debug("discarding failure after teardown",
			F("pool", p.name), F("task", item.Name), F("error", err))
		return
	}

	cancelled := 0
	for id, other := range s.workers {
		if id == w.id {
			continue
		}
		other.cancel()
		cancelled++
	}
	p.dropStateLocked(s)
	p.outcome.set(err)
	p.mu.Unlock()

	p.logger.Error("task failed, tearing down pool",
		F("pool", p.name),
		F("task", item.Name),
		F("worker", w.id.String()),
		F("cancelled_workers", cancelled),
		F("error", err),
	)
}

// abort cancels every live worker on behalf of the caller of Run. It
// reports false if the run had already reached its outcome.
func (p *Pool) abort(cause error) bool {
	p.mu.Lock()
	s := p.state
	if s == nil {
		p.mu.Unlock()
		return false
	}
	for _, w := range s.workers {
		w.cancel()
	}
	live := len(s.workers)
	p.dropStateLocked(s)
	p.outcome.set(cause)
	p.mu.Unlock()

	p.logger.Warn("run interrupted, cancelling workers",
		F("pool", p.name), F("workers", live), F("cause", cause))
	return true
}

// dropStateLocked discards s once the run has failed or was interrupted.
// Queued tasks never run and parked workers learn of it through their
// cancelled contexts.
func (p *Pool) dropStateLocked(s *poolState) {
	s.queue.Clear()
	p.state = nil
	p.metrics.RecordQueueDepth(p.name, 0, 0)
}
