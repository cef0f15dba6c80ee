package bus

import (
	"sync"
	"testing"

	"venuebridge/internal/obs"
	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	d := NewDispatcher(obs.NewMetrics())
	var mu sync.Mutex
	var got []string
	On(d, func(o schema.VenueOrder) {
		mu.Lock()
		got = append(got, o.VenueOrderID)
		mu.Unlock()
	})
	d.Start(t.Context())
	defer d.Stop()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, d.Publish(schema.VenueOrder{VenueOrderID: id}))
	}
	require.NoError(t, d.Sync(t.Context()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewDispatcher(nil)
	var orders, trades int
	On(d, func(schema.VenueOrder) { orders++ })
	On(d, func(schema.VenueTrade) { trades++ })
	d.Start(t.Context())

	require.NoError(t, d.Publish(schema.VenueTrade{}))
	require.NoError(t, d.Publish(schema.VenueOrder{}))
	require.NoError(t, d.Publish(schema.VenueTrade{}))
	require.NoError(t, d.Publish(schema.VenueLog{}))
	d.Stop()

	assert.Equal(t, 1, orders)
	assert.Equal(t, 2, trades)
}

func TestDispatcherSurvivesHandlerPanic(t *testing.T) {
	metrics := obs.NewMetrics()
	d := NewDispatcher(metrics)
	var handled int
	On(d, func(o schema.VenueOrder) {
		if o.VenueOrderID == "boom" {
			panic("boom")
		}
		handled++
	})
	d.Start(t.Context())

	require.NoError(t, d.Publish(schema.VenueOrder{VenueOrderID: "boom"}))
	require.NoError(t, d.Publish(schema.VenueOrder{VenueOrderID: "ok"}))
	d.Stop()

	assert.Equal(t, 1, handled)
	assert.Equal(t, uint64(1), metrics.Snapshot().HandlerPanics)
}

func TestDispatcherStopRejectsAndDrains(t *testing.T) {
	d := NewDispatcher(nil)
	var handled int
	On(d, func(schema.VenueTick) { handled++ })

	require.NoError(t, d.Publish(schema.VenueTick{}))
	require.NoError(t, d.Publish(schema.VenueTick{}))
	d.Start(t.Context())
	d.Stop()

	assert.Equal(t, 2, handled)
	require.ErrorIs(t, d.Publish(schema.VenueTick{}), exception.ErrQueueClosed)
	require.ErrorIs(t, d.Sync(t.Context()), exception.ErrQueueClosed)
}

func TestDispatcherStopWithoutStart(t *testing.T) {
	d := NewDispatcher(nil)
	d.Stop()
	d.Stop()
	d.Start(t.Context())
	require.ErrorIs(t, d.Publish(schema.VenueTick{}), exception.ErrQueueClosed)
}
