package event

import "time"

// EventType identifies the kind of search lifecycle event.
type EventType string

const (
	// Search lifecycle
	SearchStarted   EventType = "search.started"
	SearchCompleted EventType = "search.completed"

	// Pre-filter stage
	SearchCandidates EventType = "search.candidates"

	// Precise stage
	SearchFileSkipped EventType = "search.file_skipped"
	SearchMatched     EventType = "search.matched"
)

// KnownTypes lists every event type the search pipeline emits.
var KnownTypes = []EventType{
	SearchStarted,
	SearchCandidates,
	SearchFileSkipped,
	SearchMatched,
	SearchCompleted,
}

// IsKnown reports whether t is an event type the pipeline emits.
func IsKnown(t EventType) bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}
