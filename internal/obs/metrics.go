package obs

import (
	"sync/atomic"
	"time"

	"venuebridge/internal/model"
	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"
)

// Metrics counts what the bridge sees and does. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	events        counterSet[schema.EventType]
	anomalies     counterSet[exception.Kind]
	notifications counterSet[model.NotificationType]
	tickDrops     atomic.Uint64
	handlerPanics atomic.Uint64

	dispatch LatencyStats
}

type Snapshot struct {
	EventCounts        map[string]uint64 `json:"events"`
	AnomalyCounts      map[string]uint64 `json:"anomalies"`
	NotificationCounts map[string]uint64 `json:"notifications"`
	TickDrops          uint64            `json:"tickDrops"`
	HandlerPanics      uint64            `json:"handlerPanics"`
	DispatchLatency    LatencySnapshot   `json:"dispatchLatency"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		events:        newCounterSet[schema.EventType](schema.MaxEventType),
		anomalies:     newCounterSet[exception.Kind](exception.MaxKind),
		notifications: newCounterSet[model.NotificationType](model.MaxNotificationType),
	}
}

// ObserveEvent counts a dispatched venue event and how long it waited in the
// dispatcher.
func (m *Metrics) ObserveEvent(t schema.EventType, queued time.Duration) {
	if m == nil {
		return
	}
	m.events.inc(t)
	m.dispatch.Observe(queued)
}

func (m *Metrics) IncAnomaly(kind exception.Kind) {
	if m == nil {
		return
	}
	m.anomalies.inc(kind)
}

// IncNotification counts a message published to the trading engine bus.
func (m *Metrics) IncNotification(t model.NotificationType) {
	if m == nil {
		return
	}
	m.notifications.inc(t)
}

// IncTickDrop records a tick overwritten before the consumer read it.
func (m *Metrics) IncTickDrop() {
	if m == nil {
		return
	}
	m.tickDrops.Add(1)
}

func (m *Metrics) IncHandlerPanic() {
	if m == nil {
		return
	}
	m.handlerPanics.Add(1)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		EventCounts:        m.events.snapshot(),
		AnomalyCounts:      m.anomalies.snapshot(),
		NotificationCounts: m.notifications.snapshot(),
		TickDrops:          m.tickDrops.Load(),
		HandlerPanics:      m.handlerPanics.Load(),
		DispatchLatency:    m.dispatch.Snapshot(),
	}
}

// counterSet is one counter per value of a small enum, reported by name.
type counterSet[K enum] []atomic.Uint64

type enum interface {
	~uint8 | ~uint16
	String() string
}

func newCounterSet[K enum](maxValue int) counterSet[K] {
	return make(counterSet[K], maxValue+1)
}

func (c counterSet[K]) inc(k K) {
	if int(k) < len(c) {
		c[int(k)].Add(1)
	}
}

// snapshot omits values never counted.
func (c counterSet[K]) snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	for i := range c {
		if v := c[i].Load(); v > 0 {
			out[K(i).String()] = v
		}
	}
	return out
}

// LatencyStats keeps count, total and maximum of duration samples.
type LatencyStats struct {
	count atomic.Uint64
	total atomic.Int64
	max   atomic.Int64
}

type LatencySnapshot struct {
	Count uint64        `json:"count"`
	Avg   time.Duration `json:"avg"`
	Max   time.Duration `json:"max"`
}

func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	l.count.Add(1)
	l.total.Add(int64(d))
	for cur := l.max.Load(); int64(d) > cur; cur = l.max.Load() {
		if l.max.CompareAndSwap(cur, int64(d)) {
			return
		}
	}
}

func (l *LatencyStats) Snapshot() LatencySnapshot {
	n := l.count.Load()
	if n == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: n,
		Avg:   time.Duration(l.total.Load() / int64(n)),
		Max:   time.Duration(l.max.Load()),
	}
}
