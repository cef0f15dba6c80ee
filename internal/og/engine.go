package og

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"venuebridge/internal/account"
	"venuebridge/internal/bus"
	"venuebridge/internal/contract"
	"venuebridge/internal/model"
	"venuebridge/internal/obs"
	"venuebridge/internal/schema"
	"venuebridge/internal/venue"
	"venuebridge/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Sink receives the engine's outbound notifications. Notify is called from the
// dispatcher goroutine for event-driven notifications and from the caller's
// goroutine for SendOrder and CancelOrder.
type Sink interface {
	Notify(model.Notification)
}

type SinkFunc func(model.Notification)

func (f SinkFunc) Notify(n model.Notification) {
	f(n)
}

// Config tunes the engine.
type Config struct {
	// TickQueueSize bounds the unread tick backlog.
	TickQueueSize int
	// TickPollTimeout is how long GetTick waits on the queue before polling again.
	TickPollTimeout time.Duration
	// Location is the venue's time zone for tick timestamps.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	if c.TickQueueSize <= 0 {
		c.TickQueueSize = 1024
	}
	if c.TickPollTimeout <= 0 {
		c.TickPollTimeout = 3 * time.Second
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Options are the engine's collaborators.
type Options struct {
	Gateway    venue.Gateway
	Dispatcher *bus.Dispatcher
	Contracts  *contract.Cache
	Accounts   []*account.Account
	Sink       Sink
	Metrics    *obs.Metrics
}

// Engine reconciles the venue's asynchronous event stream with the local
// order, trade and account model.
type Engine struct {
	cfg        Config
	gateway    venue.Gateway
	dispatcher *bus.Dispatcher
	contracts  *contract.Cache
	accounts   map[model.AccountType]*account.Account
	sink       Sink
	metrics    *obs.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	index *OrderIndex
	// submitMu is held across a venue submission and its index write, so
	// acknowledgments never observe a submitted order without its mapping.
	submitMu sync.Mutex

	tradeMu    sync.Mutex
	seenTrades map[string]struct{}

	tickMu sync.RWMutex
	latest map[string]model.TickSnapshot
	ticks  *bus.TickQueue

	queryMu  sync.Mutex
	querying map[string]struct{}
	wg       sync.WaitGroup

	exitOnce sync.Once
}

// New creates an engine and registers its venue event handlers on the dispatcher.
func New(cfg Config, opt Options) (*Engine, error) {
	switch {
	case opt.Gateway == nil:
		return nil, errors.Wrap(exception.ErrNilInstance, "gateway")
	case opt.Dispatcher == nil:
		return nil, errors.Wrap(exception.ErrNilInstance, "dispatcher")
	case opt.Contracts == nil:
		return nil, errors.Wrap(exception.ErrNilInstance, "contract cache")
	}
	if opt.Sink == nil {
		opt.Sink = SinkFunc(func(model.Notification) {})
	}

	cfg = cfg.withDefaults()
	accounts := make(map[model.AccountType]*account.Account, len(opt.Accounts))
	for _, acct := range opt.Accounts {
		if acct == nil {
			return nil, errors.Wrap(exception.ErrNilInstance, "account")
		}
		accounts[acct.Type()] = acct
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:        cfg,
		gateway:    opt.Gateway,
		dispatcher: opt.Dispatcher,
		contracts:  opt.Contracts,
		accounts:   accounts,
		sink:       opt.Sink,
		metrics:    opt.Metrics,
		ctx:        ctx,
		cancel:     cancel,
		index:      NewOrderIndex(),
		seenTrades: make(map[string]struct{}),
		latest:     make(map[string]model.TickSnapshot),
		ticks:      bus.NewTickQueue(cfg.TickQueueSize),
		querying:   make(map[string]struct{}),
	}
	e.register()
	return e, nil
}

// Connect starts event delivery and connects the venue, which publishes its
// contract master data.
func (e *Engine) Connect(ctx context.Context) error {
	e.dispatcher.Start(e.ctx)
	if err := e.gateway.ConnectAndInitContracts(ctx); err != nil {
		return errors.Wrap(err, "connect venue")
	}
	logs.Info("venue connected")
	return nil
}

// InitAccount asks the venue for account state, waits until every event it
// produced has been handled, and then finalizes each account still in
// bootstrap.
func (e *Engine) InitAccount(ctx context.Context) error {
	if err := e.gateway.InitAccount(ctx); err != nil {
		return errors.Wrap(err, "init venue account")
	}
	if err := e.dispatcher.Sync(ctx); err != nil {
		return errors.Wrap(err, "drain bootstrap events")
	}
	for _, acct := range e.accounts {
		if acct.Finalize() {
			logs.Infof("account %s ready for live trading", acct.Type())
		}
	}
	return nil
}

// Exit stops event intake first, then tears the venue connection down.
func (e *Engine) Exit() error {
	var err error
	e.exitOnce.Do(func() {
		e.dispatcher.Stop()
		e.cancel()
		if cerr := e.gateway.Close(); cerr != nil {
			err = errors.Wrap(cerr, "close venue")
		}
		e.ticks.Close()
		e.wg.Wait()
		logs.Info("venue bridge exited")
	})
	return err
}

// SendOrder submits o to the venue. Final orders are ignored. An order whose
// instrument has no contract is cancelled locally without reaching the venue.
func (e *Engine) SendOrder(ctx context.Context, o *model.Order) error {
	if o == nil {
		return errors.Wrap(exception.ErrNilInstance, "order")
	}
	if o.IsFinal() {
		logs.Debugf("skip sending final order %s, status: %s", o.ID, o.Status())
		return nil
	}
	e.notify(model.NotifyOrderPendingNew, o, nil)

	ct, ok := e.contracts.ContractFor(e.contracts.SymbolFor(o.InstrumentID))
	if !ok {
		if o.MarkPendingCancel() {
			e.notify(model.NotifyOrderPendingCancel, o, nil)
		}
		if o.MarkCancelled(fmt.Sprintf("No contract exists whose instrument id is %s", o.InstrumentID)) {
			e.notify(model.NotifyOrderCancellationPass, o, nil)
		}
		e.anomaly(exception.KindLookupFailure, errors.Wrapf(exception.ErrContractNotFound, "instrument: %s", o.InstrumentID), o.InstrumentID, "")
		return nil
	}
	if o.IsFinal() {
		return nil
	}

	req, err := orderRequest(o, ct)
	if err != nil {
		e.reject(o, err)
		return err
	}

	e.submitMu.Lock()
	venueOrderID, err := e.gateway.SubmitOrder(ctx, req)
	if err == nil {
		e.index.Put(venueOrderID, o)
	}
	e.submitMu.Unlock()

	if err != nil {
		err = errors.Wrapf(err, "submit order %s", o.ID)
		e.reject(o, err)
		return err
	}
	logs.Debugf("order %s submitted as %s", o.ID, venueOrderID)
	return nil
}

// CancelOrder asks the venue to cancel o using the venue's own keys. Without
// a venue record the request carries empty keys and the venue rejects it.
func (e *Engine) CancelOrder(ctx context.Context, o *model.Order) error {
	if o == nil {
		return errors.Wrap(exception.ErrNilInstance, "order")
	}
	if o.IsFinal() {
		logs.Debugf("skip cancelling final order %s, status: %s", o.ID, o.Status())
		return nil
	}
	if o.MarkPendingCancel() {
		e.notify(model.NotifyOrderPendingCancel, o, nil)
	}

	req := e.cancelRequest(o)
	if err := e.gateway.CancelOrder(ctx, req); err != nil {
		err = errors.Wrapf(err, "cancel order %s", o.ID)
		e.anomaly(exception.KindVenueFailure, errors.Wrap(exception.ErrVenueRequest, err.Error()), o.InstrumentID, req.OrderID)
		return err
	}
	return nil
}

// Subscribe asks the venue for ticks of one instrument. An instrument without
// a contract is reported and skipped.
func (e *Engine) Subscribe(ctx context.Context, instrumentID string) error {
	ct, ok := e.contracts.ContractFor(e.contracts.SymbolFor(instrumentID))
	if !ok {
		e.anomaly(exception.KindLookupFailure, errors.Wrapf(exception.ErrContractNotFound, "subscribe instrument: %s", instrumentID), instrumentID, "")
		return nil
	}
	if err := e.gateway.Subscribe(ctx, subscribeRequest(ct)); err != nil {
		return errors.Wrapf(err, "subscribe %s", instrumentID)
	}
	logs.Debugf("subscribed %s (%s.%s)", instrumentID, ct.Symbol, ct.Exchange)
	return nil
}

// OnUniverseChanged subscribes every instrument of the new universe.
func (e *Engine) OnUniverseChanged(ctx context.Context, instrumentIDs []string) {
	for _, id := range instrumentIDs {
		if err := e.Subscribe(ctx, id); err != nil {
			logs.Errorf("universe changed, err: %+v", err)
		}
	}
}

// GetTick blocks until a tick snapshot is available or ctx is done. Poll
// timeouts are retried internally and never returned.
func (e *Engine) GetTick(ctx context.Context) (model.TickSnapshot, error) {
	for {
		pollCtx, cancel := context.WithTimeout(ctx, e.cfg.TickPollTimeout)
		snap, err := e.ticks.Next(pollCtx)
		expired := pollCtx.Err() != nil
		cancel()

		if err == nil {
			return snap, nil
		}
		if expired && ctx.Err() == nil {
			continue
		}
		return model.TickSnapshot{}, err
	}
}

// LatestTick returns the most recent snapshot of an instrument.
func (e *Engine) LatestTick(instrumentID string) (model.TickSnapshot, bool) {
	e.tickMu.RLock()
	defer e.tickMu.RUnlock()
	snap, ok := e.latest[instrumentID]
	return snap, ok
}

// OpenOrders returns the venue order ids of orders still working at the venue.
func (e *Engine) OpenOrders() []string {
	return e.index.OpenIDs()
}

// Order resolves a venue order id to the local order.
func (e *Engine) Order(venueOrderID string) (*model.Order, bool) {
	return e.index.Lookup(venueOrderID)
}

func (e *Engine) Account(t model.AccountType) (*account.Account, bool) {
	acct, ok := e.accounts[t]
	return acct, ok
}

func (e *Engine) Accounts() []*account.Account {
	out := make([]*account.Account, 0, len(e.accounts))
	for _, acct := range e.accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type() < out[j].Type() })
	return out
}

func (e *Engine) Metrics() *obs.Metrics {
	return e.metrics
}

func (e *Engine) cancelRequest(o *model.Order) schema.CancelRequest {
	if rec, ok := e.index.Record(o.ID); ok {
		return schema.CancelRequest{
			Symbol:    rec.Symbol,
			Exchange:  rec.Exchange,
			OrderID:   rec.OrderID,
			SessionID: rec.SessionID,
		}
	}

	logs.Warnf("order %s has no venue record, cancel goes out without venue keys", o.ID)
	req := schema.CancelRequest{Symbol: e.contracts.SymbolFor(o.InstrumentID)}
	if ct, ok := e.contracts.ContractFor(req.Symbol); ok {
		req.Exchange = ct.Exchange
	}
	return req
}

func (e *Engine) reject(o *model.Order, err error) {
	if o.MarkRejected(err.Error()) {
		e.notify(model.NotifyOrderCreationReject, o, nil)
	}
	e.anomaly(exception.KindVenueFailure, errors.Wrap(exception.ErrVenueRequest, err.Error()), o.InstrumentID, "")
}

func (e *Engine) notify(t model.NotificationType, o *model.Order, trade *model.Trade) {
	e.metrics.IncNotification(t)
	e.sink.Notify(model.Notification{
		Type:    t,
		Account: model.AccountTypeFuture,
		Order:   o,
		Trade:   trade,
	})
}

func (e *Engine) anomaly(kind exception.Kind, err error, instrumentID, venueID string) {
	a := e.observe(kind, err, instrumentID, venueID)
	e.metrics.IncNotification(model.NotifyAnomaly)
	e.sink.Notify(model.Notification{Type: model.NotifyAnomaly, Account: model.AccountTypeFuture, Anomaly: a})
}

// observe logs and counts an anomaly without publishing it.
func (e *Engine) observe(kind exception.Kind, err error, instrumentID, venueID string) *exception.Anomaly {
	a := &exception.Anomaly{Kind: kind, Err: err, InstrumentID: instrumentID, VenueID: venueID}
	switch kind {
	case exception.KindAccountMismatch:
		logs.Errorf("%+v", a)
	default:
		logs.Warnf("%+v", a)
	}
	e.metrics.IncAnomaly(kind)
	return a
}
