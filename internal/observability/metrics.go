package observability

import (
	"strconv"
	"sync"
	"time"
)

// EventOutcome classifies what a lifecycle handler did with an event.
type EventOutcome string

const (
	EventApplied   EventOutcome = "applied"
	EventDropped   EventOutcome = "dropped"
	EventFailed    EventOutcome = "failed"
	EventDuplicate EventOutcome = "duplicate"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	requestNanos map[string]int64
	errorCount   map[string]int64
	eventCount   map[string]int64
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Requests         map[string]int64 `json:"requests"`
	RequestLatencyMs map[string]int64 `json:"requestLatencyMs"`
	Errors           map[string]int64 `json:"errors"`
	Events           map[string]int64 `json:"events"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		requestNanos: make(map[string]int64),
		errorCount:   make(map[string]int64),
		eventCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestNanos[key] += duration.Nanoseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEvent counts a lifecycle event outcome.
func (m *Metrics) RecordEvent(eventType string, outcome EventOutcome) {
	if m == nil {
		return
	}
	key := eventType + "|" + string(outcome)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[key]++
}

// Snapshot copies the counters. Latency is the mean per key in milliseconds.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	latency := make(map[string]int64, len(m.requestNanos))
	for key, total := range m.requestNanos {
		if n := m.requestCount[key]; n > 0 {
			latency[key] = time.Duration(total / n).Milliseconds()
		}
	}
	return Snapshot{
		Requests:         copyCounts(m.requestCount),
		RequestLatencyMs: latency,
		Errors:           copyCounts(m.errorCount),
		Events:           copyCounts(m.eventCount),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
