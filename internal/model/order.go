package model

import (
	"sync"
	"time"

	"venuebridge/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// Order is the internal engine's view of an order. Identity and request fields
// are fixed at creation; the lifecycle fields only move through the transition
// methods below.
type Order struct {
	ID             string
	InstrumentID   string
	Side           Side
	Type           OrderType
	PositionEffect PositionEffect
	Quantity       decimal.Decimal
	Price          decimal.Decimal
	CreatedAt      time.Time

	mu              sync.RWMutex
	status          OrderStatus
	filled          decimal.Decimal
	avgPrice        decimal.Decimal
	transactionCost decimal.Decimal
	message         string
	acknowledged    bool
}

// NewOrder creates an order in PENDING_NEW.
func NewOrder(id, instrumentID string, side Side, typ OrderType, effect PositionEffect, qty, price decimal.Decimal) *Order {
	return &Order{
		ID:             id,
		InstrumentID:   instrumentID,
		Side:           side,
		Type:           typ,
		PositionEffect: effect,
		Quantity:       qty,
		Price:          price,
		CreatedAt:      time.Now(),
		status:         OrderStatusPendingNew,
	}
}

func (o *Order) Status() OrderStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *Order) IsFinal() bool {
	return o.Status().IsFinal()
}

func (o *Order) Message() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.message
}

func (o *Order) FilledQuantity() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.filled
}

func (o *Order) UnfilledQuantity() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.Quantity.Sub(o.filled)
}

func (o *Order) AvgPrice() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.avgPrice
}

func (o *Order) TransactionCost() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.transactionCost
}

// Activate moves PENDING_NEW to ACTIVE. It reports whether the status changed,
// so repeated acknowledgments are harmless.
func (o *Order) Activate() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != OrderStatusPendingNew {
		return false
	}
	o.status = OrderStatusActive
	return true
}

// Acknowledge records that the venue accepted the order and activates it if
// it is still PENDING_NEW. Only the first call reports true, whatever the
// status is by then: a fill or a local cancel may have moved it already.
func (o *Order) Acknowledge() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.acknowledged {
		return false
	}
	o.acknowledged = true
	if o.status == OrderStatusPendingNew {
		o.status = OrderStatusActive
	}
	return true
}

func (o *Order) Acknowledged() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.acknowledged
}

// MarkPendingCancel flags a live order as waiting for the venue's cancel confirmation.
func (o *Order) MarkPendingCancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.IsFinal() || o.status == OrderStatusPendingCancel {
		return false
	}
	o.status = OrderStatusPendingCancel
	return true
}

func (o *Order) MarkCancelled(reason string) bool {
	return o.finish(OrderStatusCancelled, reason)
}

func (o *Order) MarkRejected(reason string) bool {
	return o.finish(OrderStatusRejected, reason)
}

// ResolveCancellation applies a venue cancellation. A PENDING_CANCEL order
// becomes CANCELLED with userReason; any other live order was cancelled without
// a local request and becomes REJECTED with venueReason. It returns the new
// status and whether the order changed.
func (o *Order) ResolveCancellation(userReason, venueReason string) (OrderStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.status.IsFinal():
		return o.status, false
	case o.status == OrderStatusPendingCancel:
		o.status = OrderStatusCancelled
		o.message = userReason
	default:
		o.status = OrderStatusRejected
		o.message = venueReason
	}
	return o.status, true
}

func (o *Order) finish(status OrderStatus, reason string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.IsFinal() {
		return false
	}
	o.status = status
	o.message = reason
	return true
}

// Fill applies a trade to the order. A partial fill of a PENDING_CANCEL order
// keeps it pending so the later cancel confirmation still resolves it.
func (o *Order) Fill(t *Trade) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.IsFinal() {
		return errors.Wrapf(exception.ErrOrderInvalidTransition, "order %s is %s", o.ID, o.status)
	}
	if !t.Quantity.IsPositive() {
		return errors.Wrapf(exception.ErrOrderInvalidFill, "trade %s quantity %s", t.ID, t.Quantity)
	}
	filled := o.filled.Add(t.Quantity)
	if filled.GreaterThan(o.Quantity) {
		return errors.Wrapf(exception.ErrOrderOverFill, "order %s quantity %s, filled %s", o.ID, o.Quantity, filled)
	}

	o.avgPrice = o.avgPrice.Mul(o.filled).Add(t.Price.Mul(t.Quantity)).Div(filled)
	o.filled = filled
	o.transactionCost = o.transactionCost.Add(t.Commission).Add(t.Tax)

	switch {
	case filled.Equal(o.Quantity):
		o.status = OrderStatusFilled
	case o.status == OrderStatusPendingCancel:
		// stays pending
	default:
		o.status = OrderStatusPartiallyFilled
	}
	return nil
}
