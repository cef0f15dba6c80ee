package account

import (
	"sort"
	"sync"
	"time"

	"venuebridge/internal/model"
	"venuebridge/internal/schema"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"
)

// Leg is one direction of a position.
type Leg struct {
	Quantity      decimal.Decimal `json:"quantity"`
	TodayQuantity decimal.Decimal `json:"todayQuantity"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	Margin        decimal.Decimal `json:"margin"`
}

// Position is the long and short exposure of one instrument.
type Position struct {
	InstrumentID string `json:"instrumentId"`
	Long         Leg    `json:"long"`
	Short        Leg    `json:"short"`
}

// Balance is the cash side of the account.
type Balance struct {
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	Margin    decimal.Decimal `json:"margin"`
	Fees      decimal.Decimal `json:"fees"`
}

type positionKey struct {
	instrumentID string
	direction    schema.Direction
}

type bufferedPosition struct {
	position schema.VenuePosition
	extra    *schema.VenuePositionExtra
	contract model.Contract
}

// Account is the ledger of one account type. Until Finalize it only buffers
// bootstrap data; afterwards the Buffer methods refuse input and live trades
// are applied through ApplyTrade.
type Account struct {
	accountType model.AccountType
	startDate   time.Time
	commission  CommissionDecider
	tax         TaxDecider

	mu     sync.RWMutex
	inited bool

	bootPositions map[positionKey]*bufferedPosition
	bootBalance   *schema.VenueAccount
	histOrders    map[string]schema.VenueOrder
	histTrades    map[string]schema.VenueTrade

	positions   map[string]*Position
	balance     Balance
	openOrders  []schema.VenueOrder
	tradeRecord []schema.VenueTrade
}

// New creates an uninitialized account.
func New(accountType model.AccountType, startDate time.Time, commission CommissionDecider, tax TaxDecider) *Account {
	if tax == nil {
		tax = NoTax{}
	}
	return &Account{
		accountType:   accountType,
		startDate:     startDate,
		commission:    commission,
		tax:           tax,
		bootPositions: make(map[positionKey]*bufferedPosition),
		histOrders:    make(map[string]schema.VenueOrder),
		histTrades:    make(map[string]schema.VenueTrade),
		positions:     make(map[string]*Position),
	}
}

func (a *Account) Type() model.AccountType {
	return a.accountType
}

func (a *Account) Inited() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.inited
}

func (a *Account) CommissionDecider() CommissionDecider {
	return a.commission
}

func (a *Account) TaxDecider() TaxDecider {
	return a.tax
}

// BufferPosition stores a position snapshot. It returns false once the account
// is initialized, in which case the caller owns the event.
func (a *Account) BufferPosition(instrumentID string, p schema.VenuePosition, contract model.Contract) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inited {
		return false
	}
	key := positionKey{instrumentID: instrumentID, direction: p.Direction}
	buf, ok := a.bootPositions[key]
	if !ok {
		buf = &bufferedPosition{}
		a.bootPositions[key] = buf
	}
	buf.position = p
	buf.contract = contract
	return true
}

func (a *Account) BufferPositionExtra(instrumentID string, extra schema.VenuePositionExtra, contract model.Contract) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inited {
		return false
	}
	key := positionKey{instrumentID: instrumentID, direction: extra.Direction}
	buf, ok := a.bootPositions[key]
	if !ok {
		buf = &bufferedPosition{position: schema.VenuePosition{Symbol: extra.Symbol, Direction: extra.Direction}}
		a.bootPositions[key] = buf
	}
	buf.extra = &extra
	buf.contract = contract
	return true
}

func (a *Account) BufferBalance(b schema.VenueAccount) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inited {
		return false
	}
	a.bootBalance = &b
	return true
}

// BufferHistoricalOrder keeps the latest report of an order placed before this
// process started.
func (a *Account) BufferHistoricalOrder(o schema.VenueOrder) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inited {
		return false
	}
	a.histOrders[o.VenueOrderID] = o
	return true
}

func (a *Account) BufferHistoricalTrade(t schema.VenueTrade) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inited {
		return false
	}
	a.histTrades[t.TradeID] = t
	return true
}

// Finalize folds the bootstrap buffers into live state and closes the gate. It
// reports false when the account was already initialized.
func (a *Account) Finalize() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inited {
		return false
	}

	for key, buf := range a.bootPositions {
		pos, ok := a.positions[key.instrumentID]
		if !ok {
			pos = &Position{InstrumentID: key.instrumentID}
			a.positions[key.instrumentID] = pos
		}
		leg := Leg{
			Quantity: buf.position.Position,
			AvgPrice: buf.position.Price,
		}
		if buf.extra != nil {
			leg.TodayQuantity = buf.extra.TodayPosition
			leg.Margin = buf.extra.Margin
			if leg.AvgPrice.IsZero() && leg.Quantity.IsPositive() {
				leg.AvgPrice = buf.extra.OpenCost.Div(leg.Quantity.Mul(buf.contract.Multiplier()))
			}
		}
		switch key.direction {
		case schema.DirectionShort:
			pos.Short = leg
		default:
			pos.Long = leg
		}
	}

	if a.bootBalance != nil {
		a.balance = Balance{
			Total:     a.bootBalance.Balance,
			Available: a.bootBalance.Available,
			Margin:    a.bootBalance.Margin,
			Fees:      a.bootBalance.Commission,
		}
	}

	for _, o := range a.histOrders {
		if o.Status == schema.StatusNotTraded || o.Status == schema.StatusPartTraded {
			a.openOrders = append(a.openOrders, o)
		}
	}
	sort.Slice(a.openOrders, func(i, j int) bool {
		return a.openOrders[i].VenueOrderID < a.openOrders[j].VenueOrderID
	})

	for _, t := range a.histTrades {
		a.tradeRecord = append(a.tradeRecord, t)
	}
	sort.Slice(a.tradeRecord, func(i, j int) bool {
		if a.tradeRecord[i].TradeTime != a.tradeRecord[j].TradeTime {
			return a.tradeRecord[i].TradeTime < a.tradeRecord[j].TradeTime
		}
		return a.tradeRecord[i].TradeID < a.tradeRecord[j].TradeID
	})

	a.bootPositions = nil
	a.bootBalance = nil
	a.histOrders = nil
	a.histTrades = nil
	a.inited = true

	logs.Infof("account %s initialized, positions: %d, open orders: %d, trades: %d, start date: %s",
		a.accountType, len(a.positions), len(a.openOrders), len(a.tradeRecord), a.startDate.Format(time.DateOnly))
	return true
}

// ApplyTrade books a live trade into positions and cash. Trades arriving before
// Finalize are ignored.
func (a *Account) ApplyTrade(t *model.Trade) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inited {
		return false
	}

	pos, ok := a.positions[t.InstrumentID]
	if !ok {
		pos = &Position{InstrumentID: t.InstrumentID}
		a.positions[t.InstrumentID] = pos
	}

	opening := t.PositionEffect == model.PositionEffectOpen
	leg := &pos.Long
	if (t.Side == model.SideSell) == opening {
		leg = &pos.Short
	}

	if opening {
		qty := leg.Quantity.Add(t.Quantity)
		leg.AvgPrice = leg.AvgPrice.Mul(leg.Quantity).Add(t.Price.Mul(t.Quantity)).Div(qty)
		leg.Quantity = qty
		leg.TodayQuantity = leg.TodayQuantity.Add(t.Quantity)
	} else {
		leg.Quantity = decimal.Max(leg.Quantity.Sub(t.Quantity), decimal.Zero)
		if t.PositionEffect == model.PositionEffectCloseToday {
			leg.TodayQuantity = decimal.Max(leg.TodayQuantity.Sub(t.Quantity), decimal.Zero)
		}
		leg.TodayQuantity = decimal.Min(leg.TodayQuantity, leg.Quantity)
		if leg.Quantity.IsZero() {
			leg.AvgPrice = decimal.Zero
		}
	}

	fees := t.Commission.Add(t.Tax)
	a.balance.Fees = a.balance.Fees.Add(fees)
	a.balance.Total = a.balance.Total.Sub(fees)
	a.balance.Available = a.balance.Available.Sub(fees)
	return true
}

// Position returns a copy of an instrument's position.
func (a *Account) Position(instrumentID string) (Position, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pos, ok := a.positions[instrumentID]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

func (a *Account) Positions() []Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Position, 0, len(a.positions))
	for _, pos := range a.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out
}

func (a *Account) Balance() Balance {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

// HistoricalOpenOrders returns venue orders that were still working at bootstrap.
func (a *Account) HistoricalOpenOrders() []schema.VenueOrder {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]schema.VenueOrder(nil), a.openOrders...)
}

// HistoricalTrades returns the bootstrap trades ordered by trade time.
func (a *Account) HistoricalTrades() []schema.VenueTrade {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]schema.VenueTrade(nil), a.tradeRecord...)
}
