package sim

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Config seeds the simulated venue.
type Config struct {
	Session     string
	Contracts   []schema.VenueContract
	Extras      []schema.VenueContractExtra
	Commissions []schema.VenueCommission
	Positions   []schema.VenuePosition
	Account     schema.VenueAccount
	// Orders and Trades are replayed during InitAccount as if they happened
	// before this session.
	Orders []schema.VenueOrder
	Trades []schema.VenueTrade
	// FillOnSubmit fills every accepted order in full at its limit price.
	FillOnSubmit bool
}

type orderKey struct {
	orderID   string
	sessionID string
}

// Gateway is an in-process venue. Every request is answered synchronously
// through the publisher, in the order a real venue would report it. Requests
// the venue refuses are answered with a log event, not an error.
type Gateway struct {
	cfg Config
	pub schema.Publisher

	mu         sync.Mutex
	connected  bool
	closed     bool
	seq        uint64
	tradeSeq   uint64
	orders     map[string]*schema.VenueOrder
	byKey      map[orderKey]string
	subscribed map[string]bool
}

func New(cfg Config, pub schema.Publisher) *Gateway {
	if cfg.Session == "" {
		cfg.Session = uuid.NewString()[:8]
	}
	return &Gateway{
		cfg:        cfg,
		pub:        pub,
		orders:     make(map[string]*schema.VenueOrder),
		byKey:      make(map[orderKey]string),
		subscribed: make(map[string]bool),
	}
}

func (g *Gateway) Session() string {
	return g.cfg.Session
}

func (g *Gateway) ConnectAndInitContracts(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return exception.ErrVenueClosed
	}
	g.connected = true

	g.publish(schema.VenueLog{Time: now(), Content: "sim venue connected, session " + g.cfg.Session})
	for _, c := range g.cfg.Contracts {
		g.publish(c)
	}
	for _, e := range g.cfg.Extras {
		g.publish(e)
	}
	return ctx.Err()
}

func (g *Gateway) InitAccount(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ready(); err != nil {
		return err
	}

	for _, p := range g.cfg.Positions {
		g.publish(p)
	}
	g.publish(g.cfg.Account)
	for _, o := range g.cfg.Orders {
		g.publish(o)
	}
	for _, t := range g.cfg.Trades {
		g.publish(t)
	}
	return ctx.Err()
}

func (g *Gateway) SubmitOrder(_ context.Context, req schema.OrderRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ready(); err != nil {
		return "", err
	}

	g.seq++
	orderID := strconv.FormatUint(g.seq, 10)
	venueOrderID := fmt.Sprintf("SIM.%s.%s", g.cfg.Session, orderID)
	o := &schema.VenueOrder{
		VenueOrderID: venueOrderID,
		OrderID:      orderID,
		SessionID:    g.cfg.Session,
		Symbol:       req.Symbol,
		Exchange:     req.Exchange,
		Direction:    req.Direction,
		Offset:       req.Offset,
		Price:        req.Price,
		TotalVolume:  req.Volume,
		Status:       schema.StatusNotTraded,
		OrderTime:    now(),
	}
	g.orders[venueOrderID] = o
	g.byKey[orderKey{orderID: orderID, sessionID: g.cfg.Session}] = venueOrderID
	g.publish(*o)

	if g.cfg.FillOnSubmit {
		g.fill(o, o.Price, o.TotalVolume)
	}
	return venueOrderID, nil
}

func (g *Gateway) CancelOrder(_ context.Context, req schema.CancelRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ready(); err != nil {
		return err
	}

	venueOrderID, ok := g.byKey[orderKey{orderID: req.OrderID, sessionID: req.SessionID}]
	if !ok {
		g.publish(schema.VenueLog{Time: now(), Content: fmt.Sprintf("cancel rejected, unknown order %q session %q", req.OrderID, req.SessionID)})
		return nil
	}
	o := g.orders[venueOrderID]
	if o.Status == schema.StatusAllTraded || o.Status == schema.StatusCancelled {
		return nil
	}
	o.Status = schema.StatusCancelled
	o.CancelTime = now()
	g.publish(*o)
	return nil
}

func (g *Gateway) Subscribe(_ context.Context, req schema.SubscribeRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ready(); err != nil {
		return err
	}
	g.subscribed[req.Symbol] = true
	return nil
}

func (g *Gateway) QueryCommission(_ context.Context, query schema.CommissionQuery) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ready(); err != nil {
		return err
	}
	for _, c := range g.cfg.Commissions {
		if c.Symbol == query.Symbol {
			g.publish(c)
			return nil
		}
	}
	logs.Debugf("sim venue has no commission rule for %s", query.Symbol)
	return nil
}

// Fill reports a trade against a working order.
func (g *Gateway) Fill(venueOrderID string, price, volume decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ready(); err != nil {
		return err
	}
	o, ok := g.orders[venueOrderID]
	if !ok || o.Status == schema.StatusAllTraded || o.Status == schema.StatusCancelled {
		return errors.Wrapf(exception.ErrVenueUnknownOrder, "venue order id: %q", venueOrderID)
	}
	if o.TradedVolume.Add(volume).GreaterThan(o.TotalVolume) {
		return errors.Wrapf(exception.ErrOrderOverFill, "venue order id: %q", venueOrderID)
	}
	g.fill(o, price, volume)
	return nil
}

// PushTick publishes a tick when its symbol is subscribed.
func (g *Gateway) PushTick(t schema.VenueTick) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected || !g.subscribed[t.Symbol] {
		return false
	}
	g.publish(t)
	return true
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = false
	g.closed = true
	return nil
}

func (g *Gateway) fill(o *schema.VenueOrder, price, volume decimal.Decimal) {
	g.tradeSeq++
	o.TradedVolume = o.TradedVolume.Add(volume)
	if o.TradedVolume.Equal(o.TotalVolume) {
		o.Status = schema.StatusAllTraded
	} else {
		o.Status = schema.StatusPartTraded
	}

	g.publish(schema.VenueTrade{
		TradeID:      fmt.Sprintf("SIM.%s.T%d", g.cfg.Session, g.tradeSeq),
		VenueOrderID: o.VenueOrderID,
		Symbol:       o.Symbol,
		Exchange:     o.Exchange,
		Direction:    o.Direction,
		Offset:       o.Offset,
		Price:        price,
		Volume:       volume,
		TradeTime:    now(),
	})
	g.publish(*o)
}

func (g *Gateway) ready() error {
	if g.closed {
		return exception.ErrVenueClosed
	}
	if !g.connected {
		return exception.ErrVenueNotConnected
	}
	return nil
}

func (g *Gateway) publish(e schema.Event) {
	if err := g.pub.Publish(e); err != nil {
		logs.Warnf("sim venue publish %s, err: %+v", e.Type(), err)
	}
}

func now() string {
	return time.Now().Format(time.TimeOnly)
}
