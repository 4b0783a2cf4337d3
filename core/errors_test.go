package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestPanicError(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name      string
		value     any
		wantMsg   string
		wantCause error
	}{
		{"string value", "kaboom", "task panic: kaboom", nil},
		{"error value", cause, "task panic: cause", cause},
		{"wrapped error value", fmt.Errorf("outer: %w", cause), "task panic: outer: cause", cause},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newPanicError(tt.value, []byte("stack"))

			if got := err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if tt.wantCause == nil {
				if err.Unwrap() != nil {
					t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
				}
				return
			}
			if !errors.Is(err, tt.wantCause) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantCause)
			}
		})
	}
}

func TestInvalidCapacityWrapped(t *testing.T) {
	_, err := newPool(context.Background(), 0, nil)
	if !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("newPool(0) = %v, want ErrInvalidCapacity", err)
	}
	if err.Error() == ErrInvalidCapacity.Error() {
		t.Errorf("error %q carries no capacity detail", err)
	}
}
