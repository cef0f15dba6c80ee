package obs

import (
	"testing"
	"time"

	"venuebridge/internal/model"
	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvent(schema.EventOrder, 2*time.Millisecond)
	m.ObserveEvent(schema.EventOrder, 4*time.Millisecond)
	m.ObserveEvent(schema.EventTick, 0)
	m.IncAnomaly(exception.KindDuplicateEvent)
	m.IncNotification(model.NotifyTrade)
	m.IncTickDrop()

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.EventCounts["order"])
	assert.Equal(t, uint64(1), s.EventCounts["tick"])
	assert.Equal(t, uint64(1), s.AnomalyCounts["duplicate_event"])
	assert.Equal(t, uint64(1), s.NotificationCounts["trade"])
	assert.Equal(t, uint64(1), s.TickDrops)
	assert.Equal(t, uint64(3), s.DispatchLatency.Count)
	assert.Equal(t, 4*time.Millisecond, s.DispatchLatency.Max)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEvent(schema.EventOrder, time.Second)
	m.IncAnomaly(exception.KindLookupFailure)
	m.IncTickDrop()
	assert.Equal(t, Snapshot{}, m.Snapshot())
}
