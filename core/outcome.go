package core

import "sync"

// outcome is a single-write completion cell. The first set wins; later
// writes are ignored.
type outcome struct {
	once sync.Once
	ch   chan struct{}
	err  error
}

func newOutcome() *outcome {
	return &outcome{ch: make(chan struct{})}
}

// set records err (nil means success) and releases every waiter. It reports
// whether this call was the one that wrote the value.
func (o *outcome) set(err error) bool {
	written := false
	o.once.Do(func() {
		o.err = err
		close(o.ch)
		written = true
	})
	return written
}

func (o *outcome) done() <-chan struct{} {
	return o.ch
}

// result returns the stored value. It is only meaningful once done is closed.
func (o *outcome) result() error {
	select {
	case <-o.ch:
		return o.err
	default:
		return nil
	}
}
