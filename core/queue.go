package core

import "time"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// TaskItem is a queued unit of work.
type TaskItem struct {
	ID   TaskID
	Name string
	Task Task

	enqueuedAt time.Time

	// resume is set for the continuation of a parked worker. Dispatching it
	// hands the capacity slot back to that worker instead of starting a task.
	resume chan struct{}
}

func (item TaskItem) isResume() bool {
	return item.resume != nil
}

// =============================================================================
// TaskQueue: priority stack in front of a FIFO
// =============================================================================

// TaskQueue holds pending work in two sequences. The priority sequence is a
// stack (most recently pushed first) and always drains before the normal
// sequence, which is served oldest first.
//
// TaskQueue does no locking of its own. Every access happens inside the
// pool's step engine.
type TaskQueue struct {
	priority []TaskItem
	normal   []TaskItem
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		normal: make([]TaskItem, 0, defaultQueueCap),
	}
}

// PushPriority puts item at the front of the priority sequence.
func (q *TaskQueue) PushPriority(item TaskItem) {
	q.priority = append(q.priority, item)
}

// PushNormal appends item to the normal sequence.
func (q *TaskQueue) PushNormal(item TaskItem) {
	q.normal = append(q.normal, item)
}

// Pop removes and returns the next item: the top of the priority stack if
// any, else the head of the normal sequence.
func (q *TaskQueue) Pop() (TaskItem, bool) {
	if n := len(q.priority); n > 0 {
		item := q.priority[n-1]
		q.priority[n-1] = TaskItem{}
		q.priority = q.priority[:n-1]
		return item, true
	}

	if len(q.normal) == 0 {
		return TaskItem{}, false
	}

	item := q.normal[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.normal[0] = TaskItem{}
	q.normal = q.normal[1:]
	q.maybeCompact()

	return item, true
}

func (q *TaskQueue) maybeCompact() {
	n := len(q.normal)
	c := cap(q.normal)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.normal = make([]TaskItem, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]TaskItem, n, newCap)
	copy(newSlice, q.normal)
	q.normal = newSlice
}

// Len returns the total number of queued items.
func (q *TaskQueue) Len() int {
	return len(q.priority) + len(q.normal)
}

// PriorityLen returns the number of items in the priority sequence.
func (q *TaskQueue) PriorityLen() int {
	return len(q.priority)
}

// NormalLen returns the number of items in the normal sequence.
func (q *TaskQueue) NormalLen() int {
	return len(q.normal)
}

func (q *TaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear drops every queued item and releases the references.
func (q *TaskQueue) Clear() {
	q.priority = nil
	q.normal = make([]TaskItem, 0, defaultQueueCap)
}
