package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a materialized venue fill. It is not modified after publication.
type Trade struct {
	ID             string
	OrderID        string
	VenueOrderID   string
	InstrumentID   string
	Side           Side
	PositionEffect PositionEffect
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	Commission     decimal.Decimal
	Tax            decimal.Decimal
	Time           time.Time
}

// Notional is price times quantity, without the contract multiplier.
func (t *Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}
