package core

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
)

const defaultTaskHistoryCapacity = 100

// executionHistory keeps the last N execution records, overwriting the
// oldest once full.
type executionHistory struct {
	mu      sync.Mutex
	records []TaskExecutionRecord
	next    int  // slot the next record is written to
	wrapped bool // every slot holds a record
}

func newExecutionHistory(capacity int) *executionHistory {
	if capacity < 1 {
		capacity = defaultTaskHistoryCapacity
	}
	return &executionHistory{records: make([]TaskExecutionRecord, capacity)}
}

func (h *executionHistory) Add(record TaskExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.next] = record
	h.next++
	if h.next == len(h.records) {
		h.next = 0
		h.wrapped = true
	}
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (h *executionHistory) Recent(limit int) []TaskExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	stored := h.next
	if h.wrapped {
		stored = len(h.records)
	}
	if stored == 0 {
		return nil
	}
	if limit <= 0 || limit > stored {
		limit = stored
	}

	out := make([]TaskExecutionRecord, limit)
	idx := h.next
	for i := range out {
		idx--
		if idx < 0 {
			idx = len(h.records) - 1
		}
		out[i] = h.records[idx]
	}
	return out
}

// resolveTaskName returns explicit, or the symbol name of task's function.
func resolveTaskName(task Task, explicit string) string {
	switch {
	case explicit != "":
		return explicit
	case task == nil:
		return "anonymous"
	}

	fn := runtime.FuncForPC(reflect.ValueOf(task).Pointer())
	if fn == nil || fn.Name() == "" {
		return "anonymous"
	}
	// Method values carry a "-fm" wrapper suffix.
	return strings.TrimSuffix(fn.Name(), "-fm")
}
