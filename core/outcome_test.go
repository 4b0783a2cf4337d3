package core

import (
	"errors"
	"sync"
	"testing"
)

// TestOutcome_FirstWriterWins verifies the completion cell is single-write
// Given: An empty outcome
// When: Several goroutines race to set different errors
// Then: Exactly one write succeeds and its value is kept
func TestOutcome_FirstWriterWins(t *testing.T) {
	// Arrange
	o := newOutcome()
	if o.result() != nil {
		t.Fatal("result() before set should be nil")
	}

	// Act
	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []error
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := errors.New("failure")
			if i == 0 {
				err = nil
			}
			if o.set(err) {
				mu.Lock()
				winners = append(winners, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Assert
	if len(winners) != 1 {
		t.Fatalf("successful writes = %d, want 1", len(winners))
	}
	<-o.done()
	if got := o.result(); got != winners[0] {
		t.Errorf("result() = %v, want %v", got, winners[0])
	}
	if o.set(errors.New("late")) {
		t.Error("set after completion reported success")
	}
}
