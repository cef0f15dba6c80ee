package schema

import (
	"venuebridge/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// OrderRequest is a venue order submission. Every field is required.
type OrderRequest struct {
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Price        decimal.Decimal `json:"price"`
	Volume       decimal.Decimal `json:"volume"`
	Direction    Direction       `json:"direction"`
	PriceType    PriceType       `json:"priceType"`
	Offset       Offset          `json:"offset"`
	Currency     string          `json:"currency"`
	ProductClass string          `json:"productClass"`
}

// Validate checks that no field was left empty. Price may be zero for market orders.
func (r OrderRequest) Validate() error {
	switch {
	case r.Symbol == "":
		return errors.Wrap(exception.ErrVenueMissingField, "symbol")
	case r.Exchange == "":
		return errors.Wrap(exception.ErrVenueMissingField, "exchange")
	case !r.Volume.IsPositive():
		return errors.Wrap(exception.ErrVenueMissingField, "volume")
	case r.Price.IsNegative():
		return errors.Wrap(exception.ErrVenueMissingField, "price")
	case r.Direction == "":
		return errors.Wrap(exception.ErrVenueMissingField, "direction")
	case r.PriceType == "":
		return errors.Wrap(exception.ErrVenueMissingField, "priceType")
	case r.Offset == "":
		return errors.Wrap(exception.ErrVenueMissingField, "offset")
	case r.Currency == "":
		return errors.Wrap(exception.ErrVenueMissingField, "currency")
	case r.ProductClass == "":
		return errors.Wrap(exception.ErrVenueMissingField, "productClass")
	}
	return nil
}

// CancelRequest cancels a venue order by its venue-native keys.
type CancelRequest struct {
	Symbol    string `json:"symbol"`
	Exchange  string `json:"exchange"`
	OrderID   string `json:"orderId"`
	SessionID string `json:"sessionId"`
}

// SubscribeRequest asks the venue for ticks of one contract.
type SubscribeRequest struct {
	Symbol       string `json:"symbol"`
	Exchange     string `json:"exchange"`
	ProductClass string `json:"productClass"`
	Currency     string `json:"currency"`
}

// CommissionQuery asks the venue for the commission rule of one contract.
type CommissionQuery struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}
