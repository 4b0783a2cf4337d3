package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution, before the
// panic is turned into the pool's failure.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The worker context of the panicked task
	// - poolName: The name of the pool where the panic occurred
	// - workerID: The worker that was running the task
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, poolName string, workerID WorkerID, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs the panic and its stack through Logger.
// A nil Logger falls back to DefaultLogger.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs panic information.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID WorkerID, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("task panic",
		F("pool", poolName),
		F("worker", workerID.String()),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting pool execution metrics.
//
// Methods are called from worker goroutines, some of them while the pool
// state lock is held: they must be non-blocking and fast.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute, including
	// any time it spent blocked.
	RecordTaskDuration(poolName string, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(poolName string, panicInfo any)

	// RecordTaskFailure records a task failure (returned error or panic).
	RecordTaskFailure(poolName string)

	// RecordBlockDuration records how long a worker stayed parked in Block,
	// from giving its slot away to getting it back.
	RecordBlockDuration(poolName string, duration time.Duration)

	// RecordQueueDepth records the current depth of both queue sequences.
	RecordQueueDepth(poolName string, priority, normal int)

	// RecordTaskRejected records that a submitted task was dropped.
	RecordTaskRejected(poolName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(poolName string, duration time.Duration)  {}
func (m *NilMetrics) RecordTaskPanic(poolName string, panicInfo any)              {}
func (m *NilMetrics) RecordTaskFailure(poolName string)                           {}
func (m *NilMetrics) RecordBlockDuration(poolName string, duration time.Duration) {}
func (m *NilMetrics) RecordQueueDepth(poolName string, priority, normal int)      {}
func (m *NilMetrics) RecordTaskRejected(poolName string, reason string)           {}

// Rejection reasons reported to Metrics.RecordTaskRejected.
const (
	RejectNilTask      = "nil task"
	RejectPoolFinished = "pool finished"
)

// =============================================================================
// PoolConfig: Configuration for a pool run
// =============================================================================

// PoolConfig holds configuration options for a pool run.
// All handlers are optional; if not provided, default implementations will be used.
type PoolConfig struct {
	// Name labels logs, metrics and history records. Defaults to "pool".
	Name string

	// ShutdownTimeout bounds how long Run waits for worker goroutines to
	// exit after the run is over. Zero waits for all of them; on timeout
	// the remaining goroutines are detached.
	ShutdownTimeout time.Duration

	// HistoryCapacity is the number of execution records kept for
	// RecentTasks. Defaults to 100.
	HistoryCapacity int

	// Logger receives pool lifecycle events. Defaults to DefaultLogger.
	Logger Logger

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics is called to record execution metrics. Defaults to NilMetrics.
	Metrics Metrics
}

// DefaultPoolConfig returns a config with default handlers.
func DefaultPoolConfig() *PoolConfig {
	logger := NewDefaultLogger()
	return &PoolConfig{
		Name:            defaultPoolName,
		HistoryCapacity: defaultTaskHistoryCapacity,
		Logger:          logger,
		PanicHandler:    &DefaultPanicHandler{Logger: logger},
		Metrics:         &NilMetrics{},
	}
}
