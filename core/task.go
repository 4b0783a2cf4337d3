package core

import (
	"context"

	"github.com/google/uuid"
)

// Task is the unit of work (Closure). A task fails by returning a non-nil
// error or by panicking. The context is cancelled when the pool tears down.
type Task func(ctx context.Context) error

// InitFunc seeds a pool. It runs as the first task of a Run.
type InitFunc func(ctx context.Context, p *Pool) error

// TaskID identifies a submitted task.
type TaskID uuid.UUID

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// WorkerID identifies a worker goroutine for the lifetime of its run.
type WorkerID uuid.UUID

func generateWorkerID() WorkerID {
	return WorkerID(uuid.New())
}

func (id WorkerID) String() string {
	return uuid.UUID(id).String()
}
