package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FinderCall records one pre-filter invocation.
type FinderCall struct {
	Term string
	Root string
}

// MockFinder satisfies the search Finder interface for testing.
type MockFinder struct {
	mu sync.Mutex
	// Files maps a term to the candidates returned for it, for every root.
	Files map[string][]string
	// FailTerms lists terms whose call returns an error.
	FailTerms  map[string]bool
	ShouldFail bool
	Delay      time.Duration
	Calls      []FinderCall
}

func (m *MockFinder) FindFilesContaining(ctx context.Context, term, root string) ([]string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, FinderCall{Term: term, Root: root})
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.ShouldFail || m.FailTerms[term] {
		return nil, fmt.Errorf("mock finder error")
	}
	return m.Files[term], nil
}

// CallCount returns the number of finder calls made (thread-safe).
func (m *MockFinder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LogEntry is one message captured by CaptureLogger.
type LogEntry struct {
	Level   string
	Msg     string
	Keyvals []interface{}
}

// CaptureLogger records log calls in memory.
type CaptureLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

func (l *CaptureLogger) record(level, msg string, keyvals []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Keyvals: keyvals})
}

func (l *CaptureLogger) Debug(msg string, keyvals ...interface{}) { l.record("debug", msg, keyvals) }
func (l *CaptureLogger) Info(msg string, keyvals ...interface{})  { l.record("info", msg, keyvals) }
func (l *CaptureLogger) Warn(msg string, keyvals ...interface{})  { l.record("warn", msg, keyvals) }

// Warnings returns the messages logged at warn level.
func (l *CaptureLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.Entries {
		if e.Level == "warn" {
			out = append(out, e.Msg)
		}
	}
	return out
}
