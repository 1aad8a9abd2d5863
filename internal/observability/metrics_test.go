package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/rentals", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/rentals", "POST", 200, 30*time.Millisecond)
	m.RecordError("/rentals", "POST", "INSUFFICIENT_FUNDS")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/rentals|POST|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMilli["/rentals|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/rentals|POST|INSUFFICIENT_FUNDS"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
