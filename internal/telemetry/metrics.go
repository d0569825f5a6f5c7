package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects counters for a single search run.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	FinderCalls    int64
	FinderFailures int64
	Candidates     int64
	FilesParsed    int64
	FilesSkipped   int64
	Matches        int64

	// Histograms (simplified)
	finderLatencies []time.Duration
	totalDuration   time.Duration
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		finderLatencies: make([]time.Duration, 0, 16),
	}
}

// IncFinderCalls increments the pre-filter call counter
func (m *Metrics) IncFinderCalls() {
	atomic.AddInt64(&m.FinderCalls, 1)
}

// IncFinderFailures increments the failed or timed out pre-filter call counter
func (m *Metrics) IncFinderFailures() {
	atomic.AddInt64(&m.FinderFailures, 1)
}

// AddCandidates adds to the candidate file counter
func (m *Metrics) AddCandidates(n int) {
	atomic.AddInt64(&m.Candidates, int64(n))
}

// IncFilesParsed increments the parsed file counter
func (m *Metrics) IncFilesParsed() {
	atomic.AddInt64(&m.FilesParsed, 1)
}

// IncFilesSkipped increments the skipped file counter
func (m *Metrics) IncFilesSkipped() {
	atomic.AddInt64(&m.FilesSkipped, 1)
}

// IncMatches increments the matched file counter
func (m *Metrics) IncMatches() {
	atomic.AddInt64(&m.Matches, 1)
}

// RecordFinderLatency records the duration of one pre-filter call
func (m *Metrics) RecordFinderLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finderLatencies = append(m.finderLatencies, d)
}

// RecordDuration records the wall time of the whole search
func (m *Metrics) RecordDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalDuration = d
}

// GetSummary returns a summary of collected metrics
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"finder_calls":    atomic.LoadInt64(&m.FinderCalls),
		"finder_failures": atomic.LoadInt64(&m.FinderFailures),
		"candidates":      atomic.LoadInt64(&m.Candidates),
		"files_parsed":    atomic.LoadInt64(&m.FilesParsed),
		"files_skipped":   atomic.LoadInt64(&m.FilesSkipped),
		"matches":         atomic.LoadInt64(&m.Matches),
		"duration_ms":     m.totalDuration.Milliseconds(),
	}

	if len(m.finderLatencies) > 0 {
		var total time.Duration
		for _, d := range m.finderLatencies {
			total += d
		}
		summary["avg_finder_latency_ms"] = total.Milliseconds() / int64(len(m.finderLatencies))
	}

	return summary
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.FinderCalls, 0)
	atomic.StoreInt64(&m.FinderFailures, 0)
	atomic.StoreInt64(&m.Candidates, 0)
	atomic.StoreInt64(&m.FilesParsed, 0)
	atomic.StoreInt64(&m.FilesSkipped, 0)
	atomic.StoreInt64(&m.Matches, 0)

	m.finderLatencies = m.finderLatencies[:0]
	m.totalDuration = 0
}
