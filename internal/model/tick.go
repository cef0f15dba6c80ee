package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookDepth is the number of book levels carried by a snapshot.
const BookDepth = 5

// TickSnapshot is a normalized market snapshot for one instrument.
// Fields the venue cannot provide are left invalid instead of zero.
type TickSnapshot struct {
	InstrumentID string    `json:"instrumentId"`
	Datetime     time.Time `json:"datetime"`

	Open         decimal.Decimal `json:"open"`
	High         decimal.Decimal `json:"high"`
	Low          decimal.Decimal `json:"low"`
	Last         decimal.Decimal `json:"last"`
	PrevClose    decimal.Decimal `json:"prevClose"`
	Volume       decimal.Decimal `json:"volume"`
	OpenInterest decimal.Decimal `json:"openInterest"`

	TotalTurnover  decimal.NullDecimal `json:"totalTurnover"`
	PrevSettlement decimal.NullDecimal `json:"prevSettlement"`

	Bids       [BookDepth]decimal.Decimal `json:"bid"`
	BidVolumes [BookDepth]decimal.Decimal `json:"bidVolume"`
	Asks       [BookDepth]decimal.Decimal `json:"ask"`
	AskVolumes [BookDepth]decimal.Decimal `json:"askVolume"`

	LimitUp   decimal.Decimal `json:"limitUp"`
	LimitDown decimal.Decimal `json:"limitDown"`
}
