package og

import (
	"time"

	"venuebridge/internal/model"
	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/yanun0323/errors"
)

var (
	_sideToDirection = map[model.Side]schema.Direction{
		model.SideBuy:  schema.DirectionLong,
		model.SideSell: schema.DirectionShort,
	}
	_directionToSide = map[schema.Direction]model.Side{
		schema.DirectionLong:  model.SideBuy,
		schema.DirectionShort: model.SideSell,
	}
	_orderTypeToPriceType = map[model.OrderType]schema.PriceType{
		model.OrderTypeLimit:  schema.PriceTypeLimit,
		model.OrderTypeMarket: schema.PriceTypeMarket,
	}
	_effectToOffset = map[model.PositionEffect]schema.Offset{
		model.PositionEffectOpen:       schema.OffsetOpen,
		model.PositionEffectClose:      schema.OffsetClose,
		model.PositionEffectCloseToday: schema.OffsetCloseToday,
	}
	_offsetToEffect = map[schema.Offset]model.PositionEffect{
		schema.OffsetOpen:       model.PositionEffectOpen,
		schema.OffsetClose:      model.PositionEffectClose,
		schema.OffsetCloseToday: model.PositionEffectCloseToday,
	}
)

// orderRequest builds the venue submission of o. The bridge trades a single
// product class, so currency and product are fixed.
func orderRequest(o *model.Order, ct model.Contract) (schema.OrderRequest, error) {
	direction, ok := _sideToDirection[o.Side]
	if !ok {
		return schema.OrderRequest{}, errors.Wrapf(exception.ErrOrderUnsupportedSide, "side: %s", o.Side)
	}
	priceType, ok := _orderTypeToPriceType[o.Type]
	if !ok {
		return schema.OrderRequest{}, errors.Wrapf(exception.ErrOrderUnsupportedType, "type: %s", o.Type)
	}
	offset, ok := _effectToOffset[o.PositionEffect]
	if !ok {
		return schema.OrderRequest{}, errors.Wrapf(exception.ErrOrderUnsupportedEffect, "position effect: %s", o.PositionEffect)
	}

	req := schema.OrderRequest{
		Symbol:       ct.Symbol,
		Exchange:     ct.Exchange,
		Price:        o.Price,
		Volume:       o.Quantity,
		Direction:    direction,
		PriceType:    priceType,
		Offset:       offset,
		Currency:     schema.CurrencyCNY,
		ProductClass: schema.ProductFutures,
	}
	return req, req.Validate()
}

func subscribeRequest(ct model.Contract) schema.SubscribeRequest {
	return schema.SubscribeRequest{
		Symbol:       ct.Symbol,
		Exchange:     ct.Exchange,
		ProductClass: schema.ProductFutures,
		Currency:     schema.CurrencyCNY,
	}
}

func tradeSide(vt schema.VenueTrade) (model.Side, model.PositionEffect, error) {
	side, ok := _directionToSide[vt.Direction]
	if !ok {
		return 0, 0, errors.Wrapf(exception.ErrOrderUnsupportedSide, "direction: %q", vt.Direction)
	}
	effect, ok := _offsetToEffect[vt.Offset]
	if !ok {
		return 0, 0, errors.Wrapf(exception.ErrOrderUnsupportedEffect, "offset: %q", vt.Offset)
	}
	return side, effect, nil
}

const _tickLayout = "20060102 15:04:05"

// tickSnapshot normalizes a venue tick. Turnover and settlement are not
// reported by the venue and stay invalid.
func tickSnapshot(instrumentID string, vt schema.VenueTick, loc *time.Location) (model.TickSnapshot, error) {
	dt, err := time.ParseInLocation(_tickLayout, vt.Date+" "+vt.Time, loc)
	if err != nil {
		return model.TickSnapshot{}, errors.Wrapf(err, "parse tick time of %s", vt.Symbol).With("datetime", vt.Date+" "+vt.Time)
	}

	snap := model.TickSnapshot{
		InstrumentID: instrumentID,
		Datetime:     dt,
		Open:         vt.OpenPrice,
		High:         vt.HighPrice,
		Low:          vt.LowPrice,
		Last:         vt.LastPrice,
		PrevClose:    vt.PreClose,
		Volume:       vt.Volume,
		OpenInterest: vt.OpenInterest,
		LimitUp:      vt.UpperLimit,
		LimitDown:    vt.LowerLimit,
		Bids:         vt.BidPrice,
		BidVolumes:   vt.BidVolume,
		Asks:         vt.AskPrice,
		AskVolumes:   vt.AskVolume,
	}
	return snap, nil
}

// tradeTime places the venue's HH:MM:SS trade time on the current day.
func tradeTime(raw string, now time.Time) time.Time {
	t, err := time.ParseInLocation(time.TimeOnly, raw, now.Location())
	if err != nil {
		return now
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), now.Location())
}
