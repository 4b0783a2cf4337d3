package core

import "time"

// TaskExecutionRecord captures a completed task execution event.
type TaskExecutionRecord struct {
	TaskID     TaskID
	Name       string
	PoolName   string
	WorkerID   WorkerID
	QueuedFor  time.Duration // time between Submit and start
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Blocked    time.Duration // time spent parked in Block
	Failed     bool
	Panicked   bool
}

// PoolStats represents runtime observability state for a pool.
type PoolStats struct {
	Name           string
	Capacity       int
	Workers        int // live worker goroutines, working or blocked
	Working        int
	Blocked        int
	PeakWorking    int // highest Working seen during the run
	QueuedPriority int
	QueuedNormal   int
	Dispatched     int64
	Completed      int64
	Running        bool
}
