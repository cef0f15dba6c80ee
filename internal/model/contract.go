package model

import "github.com/shopspring/decimal"

// Contract is the venue-side description of a tradable instrument.
type Contract struct {
	InstrumentID string
	Symbol       string
	Exchange     string
	Name         string
	ProductClass string
	Size         decimal.Decimal
	PriceTick    decimal.Decimal

	LongMarginRatio  decimal.Decimal
	ShortMarginRatio decimal.Decimal
}

// Multiplier returns the contract size, defaulting to one.
func (c Contract) Multiplier() decimal.Decimal {
	if c.Size.IsPositive() {
		return c.Size
	}
	return decimal.NewFromInt(1)
}

// CommissionInfo holds per-instrument commission ratios. A ratio applies either
// to traded money or to traded volume; venues usually set only one of them.
type CommissionInfo struct {
	InstrumentID string

	OpenRatioByMoney        decimal.Decimal
	OpenRatioByVolume       decimal.Decimal
	CloseRatioByMoney       decimal.Decimal
	CloseRatioByVolume      decimal.Decimal
	CloseTodayRatioByMoney  decimal.Decimal
	CloseTodayRatioByVolume decimal.Decimal

	complete bool
}

// NewCommissionInfo marks the info as complete, i.e. fetched from the venue.
func NewCommissionInfo(info CommissionInfo) CommissionInfo {
	info.complete = true
	return info
}

func (c CommissionInfo) Complete() bool {
	return c.complete
}
