package schema

// Status is the venue-reported order status.
type Status string

const (
	StatusUnknown    Status = "unknown"
	StatusNotTraded  Status = "not_traded"
	StatusPartTraded Status = "part_traded"
	StatusAllTraded  Status = "all_traded"
	StatusCancelled  Status = "cancelled"
)

// Direction is the venue-side order direction.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// PriceType is the venue-side order type.
type PriceType string

const (
	PriceTypeLimit  PriceType = "limit"
	PriceTypeMarket PriceType = "market"
)

// Offset is the venue-side position effect.
type Offset string

const (
	OffsetOpen       Offset = "open"
	OffsetClose      Offset = "close"
	OffsetCloseToday Offset = "close_today"
)

const (
	CurrencyCNY    = "CNY"
	ProductFutures = "futures"
)
