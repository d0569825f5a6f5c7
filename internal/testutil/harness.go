package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cadre-oss/memsearch/internal/event"
	"github.com/cadre-oss/memsearch/internal/telemetry"
)

// Corpus is a throwaway memory directory for tests.
type Corpus struct {
	T    *testing.T
	Root string
}

// NewCorpus creates an empty memory root under t.TempDir().
func NewCorpus(t *testing.T) *Corpus {
	t.Helper()
	return &Corpus{T: t, Root: t.TempDir()}
}

// Write creates rel (slash separated, relative to Root) with content and
// returns its absolute path. Parent directories are created as needed.
func (c *Corpus) Write(rel, content string) string {
	c.T.Helper()
	return c.WriteBytes(rel, []byte(content))
}

// WriteBytes is Write for raw bytes, e.g. non UTF-8 content.
func (c *Corpus) WriteBytes(rel string, content []byte) string {
	c.T.Helper()
	path := filepath.Join(c.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.T.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		c.T.Fatal(err)
	}
	return path
}

// Mkdir creates an empty directory below Root.
func (c *Corpus) Mkdir(rel string) string {
	c.T.Helper()
	path := filepath.Join(c.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(path, 0755); err != nil {
		c.T.Fatal(err)
	}
	return path
}

// Path returns the absolute path of rel.
func (c *Corpus) Path(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// Memory builds a header document from key/value lines and a body.
func Memory(header, body string) string {
	return "---\n" + header + "\n---\n" + body
}

// EventRecorder is a blocking hook that records every event it sees.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewRecordingBus returns a bus with an EventRecorder registered.
func NewRecordingBus() (*event.Bus, *EventRecorder) {
	rec := &EventRecorder{}
	bus := event.NewBus(nil)
	bus.Register(rec)
	return bus, rec
}

func (r *EventRecorder) Name() string                 { return "test-recorder" }
func (r *EventRecorder) Matches(event.EventType) bool { return true }
func (r *EventRecorder) IsBlocking() bool             { return true }

func (r *EventRecorder) Handle(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []event.EventType {
	var types []event.EventType
	for _, ev := range r.Events() {
		types = append(types, ev.Type)
	}
	return types
}

// Count returns the number of recorded events of type t.
func (r *EventRecorder) Count(t event.EventType) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// TestLogger returns a logger suitable for tests (verbose, no file output).
func TestLogger() *telemetry.Logger {
	return telemetry.NewLogger(true)
}
