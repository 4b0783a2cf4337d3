package blockpool

import (
	"context"

	"github.com/Swind/go-block-pool/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the blockpool package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// InitFunc seeds a pool run
type InitFunc = core.InitFunc

// Pool is the handle passed to InitFunc and reachable from task contexts
type Pool = core.Pool

// PoolConfig holds the optional settings of a run
type PoolConfig = core.PoolConfig

// PoolStats is a point-in-time view of a pool
type PoolStats = core.PoolStats

// TaskExecutionRecord describes one finished task
type TaskExecutionRecord = core.TaskExecutionRecord

// WorkerID identifies a worker goroutine
type WorkerID = core.WorkerID

// PanicError is the failure reported for a panicking task
type PanicError = core.PanicError

// Logger, Metrics and PanicHandler are the pluggable handlers of a pool
type (
	Logger       = core.Logger
	Metrics      = core.Metrics
	PanicHandler = core.PanicHandler
)

// Errors returned by the pool
var (
	ErrInvalidCapacity = core.ErrInvalidCapacity
	ErrNotInPool       = core.ErrNotInPool
	ErrAlreadyBlocked  = core.ErrAlreadyBlocked
	ErrPoolTerminated  = core.ErrPoolTerminated
	ErrTaskExited      = core.ErrTaskExited
)

var (
	// Run starts a pool and blocks until it is quiescent, fails or is interrupted.
	Run = core.Run

	// RunWithConfig is Run with explicit configuration.
	RunWithConfig = core.RunWithConfig

	// DefaultPoolConfig returns a config with default handlers.
	DefaultPoolConfig = core.DefaultPoolConfig

	// Submit enqueues a task on the pool running the current task.
	Submit = core.Submit

	// PoolFromContext returns the pool running the current task, or nil.
	PoolFromContext = core.PoolFromContext

	// WorkerIDFromContext returns the worker running the current task.
	WorkerIDFromContext = core.WorkerIDFromContext

	// BlockFunc is Block for actions without a result.
	BlockFunc = core.BlockFunc
)

// Block runs action off the pool's capacity and waits for a slot back.
// Generic functions cannot be assigned to variables, so it is wrapped here.
func Block[T any](ctx context.Context, action func(ctx context.Context) (T, error)) (T, error) {
	return core.Block(ctx, action)
}
