package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/staff/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/staff/:id", "GET", 200, 30*time.Millisecond)
	m.RecordError("/staff/:id", "GET", "NOT_FOUND")
	m.RecordEvent("lead.created", EventApplied)
	m.RecordEvent("lead.created", EventDropped)
	m.RecordEvent("lead.created", EventDropped)

	snap := m.Snapshot()

	assert.Equal(t, int64(2), snap.Requests["/staff/:id|GET|200"])
	assert.Equal(t, int64(20), snap.RequestLatencyMs["/staff/:id|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/staff/:id|GET|NOT_FOUND"])
	assert.Equal(t, int64(2), snap.Events["lead.created|dropped"])

	snap.Events["lead.created|dropped"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Events["lead.created|dropped"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordEvent("lead.created", EventFailed)
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	assert.Empty(t, m.Snapshot().Events)
}
