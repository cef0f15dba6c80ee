package schema

import "github.com/shopspring/decimal"

// VenueOrder is an order status report. The venue may resend it any number of
// times and in any order relative to other order reports.
type VenueOrder struct {
	VenueOrderID string          `json:"vtOrderId"`
	OrderID      string          `json:"orderId"`
	SessionID    string          `json:"sessionId"`
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Direction    Direction       `json:"direction"`
	Offset       Offset          `json:"offset"`
	Price        decimal.Decimal `json:"price"`
	TotalVolume  decimal.Decimal `json:"totalVolume"`
	TradedVolume decimal.Decimal `json:"tradedVolume"`
	Status       Status          `json:"status"`
	OrderTime    string          `json:"orderTime"`
	CancelTime   string          `json:"cancelTime"`
}

func (VenueOrder) Type() EventType { return EventOrder }

// VenueTrade is a fill report. TradeID is unique per venue session.
type VenueTrade struct {
	TradeID      string          `json:"vtTradeId"`
	VenueOrderID string          `json:"vtOrderId"`
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Direction    Direction       `json:"direction"`
	Offset       Offset          `json:"offset"`
	Price        decimal.Decimal `json:"price"`
	Volume       decimal.Decimal `json:"volume"`
	TradeTime    string          `json:"tradeTime"`
}

func (VenueTrade) Type() EventType { return EventTrade }

// VenueTick is a level-5 market snapshot. Date is YYYYMMDD, Time is HH:MM:SS with
// optional fractional seconds.
type VenueTick struct {
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Date         string          `json:"date"`
	Time         string          `json:"time"`
	LastPrice    decimal.Decimal `json:"lastPrice"`
	Volume       decimal.Decimal `json:"volume"`
	OpenInterest decimal.Decimal `json:"openInterest"`
	OpenPrice    decimal.Decimal `json:"openPrice"`
	HighPrice    decimal.Decimal `json:"highPrice"`
	LowPrice     decimal.Decimal `json:"lowPrice"`
	PreClose     decimal.Decimal `json:"preClosePrice"`
	UpperLimit   decimal.Decimal `json:"upperLimit"`
	LowerLimit   decimal.Decimal `json:"lowerLimit"`

	BidPrice  [5]decimal.Decimal `json:"bidPrice"`
	BidVolume [5]decimal.Decimal `json:"bidVolume"`
	AskPrice  [5]decimal.Decimal `json:"askPrice"`
	AskVolume [5]decimal.Decimal `json:"askVolume"`
}

func (VenueTick) Type() EventType { return EventTick }

// VenuePosition is one direction of a position snapshot.
type VenuePosition struct {
	Symbol         string          `json:"symbol"`
	Exchange       string          `json:"exchange"`
	Direction      Direction       `json:"direction"`
	Position       decimal.Decimal `json:"position"`
	YdPosition     decimal.Decimal `json:"ydPosition"`
	Frozen         decimal.Decimal `json:"frozen"`
	Price          decimal.Decimal `json:"price"`
	PositionProfit decimal.Decimal `json:"positionProfit"`
}

func (VenuePosition) Type() EventType { return EventPosition }

// VenuePositionExtra carries the cost and margin details missing from VenuePosition.
type VenuePositionExtra struct {
	Symbol        string          `json:"symbol"`
	Direction     Direction       `json:"direction"`
	TodayPosition decimal.Decimal `json:"todayPosition"`
	OpenCost      decimal.Decimal `json:"openCost"`
	PositionCost  decimal.Decimal `json:"positionCost"`
	Commission    decimal.Decimal `json:"commission"`
	CloseProfit   decimal.Decimal `json:"closeProfit"`
	Margin        decimal.Decimal `json:"margin"`
}

func (VenuePositionExtra) Type() EventType { return EventPositionExtra }

// VenueAccount is an account balance snapshot.
type VenueAccount struct {
	AccountID      string          `json:"accountId"`
	PreBalance     decimal.Decimal `json:"preBalance"`
	Balance        decimal.Decimal `json:"balance"`
	Available      decimal.Decimal `json:"available"`
	Commission     decimal.Decimal `json:"commission"`
	Margin         decimal.Decimal `json:"margin"`
	CloseProfit    decimal.Decimal `json:"closeProfit"`
	PositionProfit decimal.Decimal `json:"positionProfit"`
}

func (VenueAccount) Type() EventType { return EventAccount }

// VenueContract describes a tradable instrument.
type VenueContract struct {
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Name         string          `json:"name"`
	ProductClass string          `json:"productClass"`
	Size         decimal.Decimal `json:"size"`
	PriceTick    decimal.Decimal `json:"priceTick"`
}

func (VenueContract) Type() EventType { return EventContract }

// VenueContractExtra adds margin details to a contract.
type VenueContractExtra struct {
	Symbol           string          `json:"symbol"`
	Exchange         string          `json:"exchange"`
	LongMarginRatio  decimal.Decimal `json:"longMarginRatio"`
	ShortMarginRatio decimal.Decimal `json:"shortMarginRatio"`
}

func (VenueContractExtra) Type() EventType { return EventContractExtra }

// VenueCommission answers a commission query.
type VenueCommission struct {
	Symbol                  string          `json:"symbol"`
	OpenRatioByMoney        decimal.Decimal `json:"openRatioByMoney"`
	OpenRatioByVolume       decimal.Decimal `json:"openRatioByVolume"`
	CloseRatioByMoney       decimal.Decimal `json:"closeRatioByMoney"`
	CloseRatioByVolume      decimal.Decimal `json:"closeRatioByVolume"`
	CloseTodayRatioByMoney  decimal.Decimal `json:"closeTodayRatioByMoney"`
	CloseTodayRatioByVolume decimal.Decimal `json:"closeTodayRatioByVolume"`
}

func (VenueCommission) Type() EventType { return EventCommission }

// VenueLog is a log line emitted by the venue connection.
type VenueLog struct {
	Time    string `json:"time"`
	Content string `json:"content"`
}

func (VenueLog) Type() EventType { return EventLog }
