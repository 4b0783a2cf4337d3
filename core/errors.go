package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidCapacity is returned by Run when capacity is out of range.
	ErrInvalidCapacity = errors.New("invalid pool capacity")

	// ErrNotInPool is returned when a pool operation is called with a context
	// that does not belong to a task running on a pool.
	ErrNotInPool = errors.New("not running on a pool worker")

	// ErrAlreadyBlocked is returned by Block when the calling worker is
	// already parked.
	ErrAlreadyBlocked = errors.New("worker is already blocked")

	// ErrPoolTerminated is returned by Block when the pool tore down while
	// the worker was waiting for its slot back.
	ErrPoolTerminated = errors.New("pool terminated")

	// ErrTaskExited reports a task that called runtime.Goexit.
	ErrTaskExited = errors.New("task exited its goroutine")
)

// PanicError is the failure reported for a task that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(value any, stack []byte) *PanicError {
	return &PanicError{Value: value, Stack: stack}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
