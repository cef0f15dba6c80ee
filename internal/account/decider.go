package account

import (
	"venuebridge/internal/model"

	"github.com/shopspring/decimal"
)

// CommissionDecider prices the commission of a trade.
type CommissionDecider interface {
	Commission(t *model.Trade) decimal.Decimal
}

// TaxDecider prices the tax of a trade.
type TaxDecider interface {
	Tax(t *model.Trade) decimal.Decimal
}

// RuleSource provides the per-instrument data commission pricing needs.
type RuleSource interface {
	Commission(instrumentID string) (model.CommissionInfo, bool)
	Multiplier(instrumentID string) decimal.Decimal
}

// FutureCommission prices futures commission from the cached venue rule. An
// instrument without a cached rule costs nothing until the rule arrives.
type FutureCommission struct {
	source     RuleSource
	multiplier decimal.Decimal
}

// NewFutureCommission creates a decider. multiplier scales every commission;
// zero means one.
func NewFutureCommission(source RuleSource, multiplier decimal.Decimal) *FutureCommission {
	if !multiplier.IsPositive() {
		multiplier = decimal.NewFromInt(1)
	}
	return &FutureCommission{source: source, multiplier: multiplier}
}

func (d *FutureCommission) Commission(t *model.Trade) decimal.Decimal {
	if d.source == nil {
		return decimal.Zero
	}
	info, ok := d.source.Commission(t.InstrumentID)
	if !ok {
		return decimal.Zero
	}

	byMoney, byVolume := info.OpenRatioByMoney, info.OpenRatioByVolume
	switch t.PositionEffect {
	case model.PositionEffectClose:
		byMoney, byVolume = info.CloseRatioByMoney, info.CloseRatioByVolume
	case model.PositionEffectCloseToday:
		byMoney, byVolume = info.CloseTodayRatioByMoney, info.CloseTodayRatioByVolume
	}

	money := t.Notional().Mul(d.source.Multiplier(t.InstrumentID))
	commission := money.Mul(byMoney).Add(t.Quantity.Mul(byVolume))
	return commission.Mul(d.multiplier)
}

// NoTax is the tax rule of futures trading.
type NoTax struct{}

func (NoTax) Tax(*model.Trade) decimal.Decimal {
	return decimal.Zero
}
