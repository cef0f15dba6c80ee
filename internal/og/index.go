package og

import (
	"sort"
	"sync"

	"venuebridge/internal/model"
	"venuebridge/internal/schema"
)

// OrderIndex maps venue order ids to local orders. It also keeps the latest
// venue record of each local order and the set of open venue order ids.
// Every open id maps to an order that is not final.
type OrderIndex struct {
	mu      sync.RWMutex
	orders  map[string]*model.Order
	records map[string]schema.VenueOrder
	open    map[string]struct{}
}

func NewOrderIndex() *OrderIndex {
	return &OrderIndex{
		orders:  make(map[string]*model.Order),
		records: make(map[string]schema.VenueOrder),
		open:    make(map[string]struct{}),
	}
}

func (x *OrderIndex) Put(venueOrderID string, o *model.Order) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.orders[venueOrderID] = o
}

func (x *OrderIndex) Lookup(venueOrderID string) (*model.Order, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	o, ok := x.orders[venueOrderID]
	return o, ok
}

// SetRecord replaces the venue record of a local order.
func (x *OrderIndex) SetRecord(orderID string, rec schema.VenueOrder) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.records[orderID] = rec
}

func (x *OrderIndex) Record(orderID string) (schema.VenueOrder, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	rec, ok := x.records[orderID]
	return rec, ok
}

// Open marks a venue order id open. It refuses ids of unknown or final orders.
func (x *OrderIndex) Open(venueOrderID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	o, ok := x.orders[venueOrderID]
	if !ok || o.IsFinal() {
		return false
	}
	x.open[venueOrderID] = struct{}{}
	return true
}

func (x *OrderIndex) Close(venueOrderID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.open, venueOrderID)
}

func (x *OrderIndex) IsOpen(venueOrderID string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.open[venueOrderID]
	return ok
}

// OpenIDs returns the open venue order ids in ascending order.
func (x *OrderIndex) OpenIDs() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ids := make([]string, 0, len(x.open))
	for id := range x.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
