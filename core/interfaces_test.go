package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Test Logger
// =============================================================================

// recordingLogger keeps every entry for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  LogLevel
	msg    string
	fields []Field
}

func (l *recordingLogger) add(level LogLevel, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields ...Field) { l.add(LevelDebug, msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...Field)  { l.add(LevelInfo, msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...Field)  { l.add(LevelWarn, msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...Field) { l.add(LevelError, msg, fields) }

func (l *recordingLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func fieldValue(fields []Field, key string) (any, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name   string
		level  LogLevel
		msg    string
		fields []Field
		want   string
	}{
		{"no fields", LevelInfo, "pool finished", nil, "[INFO] pool finished"},
		{"one field", LevelWarn, "interrupted", []Field{F("pool", "p")}, "[WARN] interrupted {pool: p}"},
		{"many fields", LevelError, "failed", []Field{F("a", 1), F("b", "x")}, "[ERROR] failed {a: 1, b: x}"},
		{"unknown level", LogLevel(9), "m", nil, "[LEVEL(9)] m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.level, tt.msg, tt.fields); got != tt.want {
				t.Errorf("formatLogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultLogger_Level(t *testing.T) {
	// Given: A DefaultLogger at Warn writing into a buffer
	var buf strings.Builder
	l := NewDefaultLoggerWithLevel(LevelWarn)
	l.out.SetOutput(&buf)
	l.out.SetFlags(0)

	// When: Messages at every level are logged
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	// Then: Only Warn and Error are written
	want := "[WARN] w\n[ERROR] e\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// =============================================================================
// Test PanicHandler
// =============================================================================

func TestDefaultPanicHandler(t *testing.T) {
	// Given: A DefaultPanicHandler with a recording logger
	logger := &recordingLogger{}
	handler := &DefaultPanicHandler{Logger: logger}
	worker := generateWorkerID()

	// When: HandlePanic is called
	handler.HandlePanic(context.Background(), "test-pool", worker, "test panic", []byte("stack trace"))

	// Then: One error entry carries the pool, worker, value and stack
	entry, ok := logger.find("task panic")
	if !ok {
		t.Fatal("no task panic entry logged")
	}
	if entry.level != LevelError {
		t.Errorf("level = %v, want ERROR", entry.level)
	}
	want := map[string]any{
		"pool":   "test-pool",
		"worker": worker.String(),
		"panic":  "test panic",
		"stack":  "stack trace",
	}
	for key, value := range want {
		got, ok := fieldValue(entry.fields, key)
		if !ok || got != value {
			t.Errorf("field %s = %v, want %v", key, got, value)
		}
	}
}

// =============================================================================
// Test Config
// =============================================================================

func TestNilMetrics(t *testing.T) {
	// NilMetrics must accept every call without effect.
	var m Metrics = &NilMetrics{}
	m.RecordTaskDuration("p", time.Second)
	m.RecordTaskPanic("p", "x")
	m.RecordTaskFailure("p")
	m.RecordBlockDuration("p", time.Second)
	m.RecordQueueDepth("p", 1, 2)
	m.RecordTaskRejected("p", RejectNilTask)
}

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig()

	if config.Name != defaultPoolName {
		t.Errorf("Name = %q, want %q", config.Name, defaultPoolName)
	}
	if config.HistoryCapacity != defaultTaskHistoryCapacity {
		t.Errorf("HistoryCapacity = %d, want %d", config.HistoryCapacity, defaultTaskHistoryCapacity)
	}
	if config.Logger == nil || config.PanicHandler == nil || config.Metrics == nil {
		t.Error("DefaultPoolConfig left a handler nil")
	}
}

func TestNewPool_PartialConfig(t *testing.T) {
	// Given: A config that only sets a name
	config := &PoolConfig{Name: "partial"}

	// When: A pool is built from it
	p, err := newPool(context.Background(), 2, config)
	if err != nil {
		t.Fatalf("newPool() = %v", err)
	}
	defer p.cancel()

	// Then: Missing handlers are filled in
	if p.logger == nil || p.metrics == nil || p.panicHandler == nil {
		t.Error("newPool left a handler nil")
	}
	if p.name != "partial" || p.capacity != 2 {
		t.Errorf("name/capacity = %q/%d, want partial/2", p.name, p.capacity)
	}
}

func TestPool_LogsFailure(t *testing.T) {
	// Given: A pool logging to a recording logger
	logger := &recordingLogger{}
	config := &PoolConfig{Name: "logged", Logger: logger}

	// When: A task fails
	err := RunWithConfig(context.Background(), 1, config, func(ctx context.Context, p *Pool) error {
		return context.Canceled
	})

	// Then: The teardown and the finish are both logged
	if err != context.Canceled {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	entry, ok := logger.find("task failed, tearing down pool")
	if !ok || entry.level != LevelError {
		t.Fatalf("teardown entry = %+v, %v", entry, ok)
	}
	if v, _ := fieldValue(entry.fields, "task"); v != "init" {
		t.Errorf("task field = %v, want init", v)
	}
	if _, ok := logger.find("pool finished"); !ok {
		t.Error("no pool finished entry logged")
	}
}

func TestPool_TeardownClearsQueue(t *testing.T) {
	for _, tt := range []struct {
		name     string
		teardown func(p *Pool)
	}{
		{"fail", func(p *Pool) {
			p.fail(&worker{id: generateWorkerID()}, TaskItem{Name: "failing"}, context.Canceled)
		}},
		{"abort", func(p *Pool) { p.abort(context.Canceled) }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			// Given: A pool with queued work in both sequences
			p, err := newPool(context.Background(), 1, &PoolConfig{Logger: NewNoOpLogger()})
			if err != nil {
				t.Fatalf("newPool() = %v", err)
			}
			defer p.cancel()
			s := p.state
			s.queue.PushNormal(TaskItem{Name: "queued"})
			s.queue.PushPriority(TaskItem{Name: "resume", resume: make(chan struct{})})

			// When: The run is torn down
			tt.teardown(p)

			// Then: The dropped state no longer references the queued items
			if !s.queue.IsEmpty() {
				t.Errorf("queue len = %d after teardown, want 0", s.queue.Len())
			}
			if stats := p.Stats(); stats.Running || stats.QueuedNormal != 0 {
				t.Errorf("Stats() = %+v, want a finished pool with nothing queued", stats)
			}
		})
	}
}
