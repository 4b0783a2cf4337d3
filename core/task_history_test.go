package core

import (
	"context"
	"strings"
	"testing"
)

func TestExecutionHistory_RingBuffer(t *testing.T) {
	// Given: A history that holds 3 records
	h := newExecutionHistory(3)
	if got := h.Recent(0); got != nil {
		t.Fatalf("Recent() on empty history = %v, want nil", got)
	}

	// When: 5 records are added
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		h.Add(TaskExecutionRecord{Name: name})
	}

	// Then: The 3 newest remain, newest first
	got := h.Recent(0)
	want := []string{"e", "d", "c"}
	if len(got) != len(want) {
		t.Fatalf("len(Recent) = %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Recent()[%d] = %s, want %s", i, got[i].Name, name)
		}
	}
	if got := h.Recent(2); len(got) != 2 || got[0].Name != "e" {
		t.Errorf("Recent(2) = %+v", got)
	}
}

func namedTaskForHistory(ctx context.Context) error { return nil }

func TestResolveTaskName(t *testing.T) {
	if got := resolveTaskName(namedTaskForHistory, "explicit"); got != "explicit" {
		t.Errorf("explicit name = %q", got)
	}
	if got := resolveTaskName(nil, ""); got != "anonymous" {
		t.Errorf("nil task name = %q, want anonymous", got)
	}
	if got := resolveTaskName(namedTaskForHistory, ""); !strings.HasSuffix(got, "namedTaskForHistory") {
		t.Errorf("function name = %q, want suffix namedTaskForHistory", got)
	}
}
