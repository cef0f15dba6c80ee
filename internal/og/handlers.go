package og

import (
	"fmt"
	"time"

	"venuebridge/internal/account"
	"venuebridge/internal/bus"
	"venuebridge/internal/model"
	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

func (e *Engine) register() {
	bus.On(e.dispatcher, e.OnOrder)
	bus.On(e.dispatcher, e.OnTrade)
	bus.On(e.dispatcher, e.OnTick)
	bus.On(e.dispatcher, e.OnPosition)
	bus.On(e.dispatcher, e.OnPositionExtra)
	bus.On(e.dispatcher, e.OnAccount)
	bus.On(e.dispatcher, e.OnContract)
	bus.On(e.dispatcher, e.OnContractExtra)
	bus.On(e.dispatcher, e.OnCommission)
	bus.On(e.dispatcher, e.OnLog)
}

// awaitSubmissions waits for an in-flight SendOrder to record its venue id.
func (e *Engine) awaitSubmissions() {
	e.submitMu.Lock()
	e.submitMu.Unlock()
}

// OnOrder reconciles a venue order report with the local order lifecycle.
func (e *Engine) OnOrder(vo schema.VenueOrder) {
	logs.Debugf("venue order %s, status: %s, traded: %s/%s", vo.VenueOrderID, vo.Status, vo.TradedVolume, vo.TotalVolume)
	if vo.Status == schema.StatusUnknown || vo.Status == "" {
		err := errors.Wrapf(exception.ErrUnknownVenueStatus, "venue order: %s", vo.VenueOrderID)
		if e.bootstrapping() {
			e.observe(exception.KindProtocolAnomaly, err, "", vo.VenueOrderID)
			return
		}
		e.anomaly(exception.KindProtocolAnomaly, err, "", vo.VenueOrderID)
		return
	}

	e.awaitSubmissions()
	o, ok := e.index.Lookup(vo.VenueOrderID)
	if !ok {
		instrumentID := e.contracts.InstrumentFor(vo.Symbol)
		acct, found := e.accountFor(instrumentID, vo.VenueOrderID)
		if !found {
			return
		}
		if acct.BufferHistoricalOrder(vo) {
			return
		}
		e.anomaly(exception.KindProtocolAnomaly, errors.Wrapf(exception.ErrUnmatchedOrder, "venue order: %s", vo.VenueOrderID), instrumentID, vo.VenueOrderID)
		return
	}

	e.acknowledge(o)
	e.index.SetRecord(o.ID, vo)

	switch vo.Status {
	case schema.StatusNotTraded, schema.StatusPartTraded:
		e.index.Open(vo.VenueOrderID)
	case schema.StatusAllTraded:
		e.index.Close(vo.VenueOrderID)
	case schema.StatusCancelled:
		e.index.Close(vo.VenueOrderID)
		status, changed := o.ResolveCancellation(
			fmt.Sprintf("order %s has been cancelled by user.", o.ID),
			"Order was rejected or cancelled by venue.",
		)
		if !changed {
			return
		}
		if status == model.OrderStatusCancelled {
			e.notify(model.NotifyOrderCancellationPass, o, nil)
		} else {
			e.notify(model.NotifyOrderUnsolicitedUpdate, o, nil)
		}
	default:
		e.anomaly(exception.KindProtocolAnomaly, errors.Wrapf(exception.ErrUnknownVenueStatus, "status: %q", vo.Status), o.InstrumentID, vo.VenueOrderID)
	}
}

// OnTrade materializes a venue fill. Each venue trade id produces at most one
// trade notification.
func (e *Engine) OnTrade(vt schema.VenueTrade) {
	logs.Debugf("venue trade %s of %s, %s@%s", vt.TradeID, vt.VenueOrderID, vt.Volume, vt.Price)
	instrumentID := e.contracts.InstrumentFor(vt.Symbol)
	if info, ok := e.contracts.Commission(instrumentID); !ok || !info.Complete() {
		e.queryCommission(vt.Symbol, vt.Exchange)
	}

	acct, found := e.accountFor(instrumentID, vt.VenueOrderID)
	if !found {
		return
	}
	fresh := e.markTrade(vt.TradeID)
	if acct.BufferHistoricalTrade(vt) {
		return
	}
	if !fresh {
		e.anomaly(exception.KindDuplicateEvent, errors.Wrapf(exception.ErrDuplicateTrade, "trade: %s", vt.TradeID), instrumentID, vt.VenueOrderID)
		return
	}

	side, effect, err := tradeSide(vt)
	if err != nil {
		e.anomaly(exception.KindProtocolAnomaly, err, instrumentID, vt.VenueOrderID)
		return
	}

	e.awaitSubmissions()
	o, ok := e.index.Lookup(vt.VenueOrderID)
	if !ok {
		o = model.NewOrder(uuid.NewString(), instrumentID, side, model.OrderTypeLimit, effect, vt.Volume, vt.Price)
		o.Activate()
		logs.Infof("trade %s belongs to no local order, synthesized order %s", vt.TradeID, o.ID)
	} else {
		e.acknowledge(o)
	}

	trade := &model.Trade{
		ID:             vt.TradeID,
		OrderID:        o.ID,
		VenueOrderID:   vt.VenueOrderID,
		InstrumentID:   instrumentID,
		Side:           side,
		PositionEffect: effect,
		Price:          vt.Price,
		Quantity:       vt.Volume,
		Time:           tradeTime(vt.TradeTime, time.Now().In(e.cfg.Location)),
	}
	trade.Commission = commission(acct, trade)
	trade.Tax = tax(acct, trade)

	if err := o.Fill(trade); err != nil {
		e.anomaly(exception.KindProtocolAnomaly, err, instrumentID, vt.VenueOrderID)
	}
	if o.IsFinal() {
		e.index.Close(vt.VenueOrderID)
	}
	e.notify(model.NotifyTrade, o, trade)
}

// OnTick normalizes a tick, keeps it as the instrument's latest snapshot and
// hands it to the tick consumer.
func (e *Engine) OnTick(vt schema.VenueTick) {
	instrumentID := e.contracts.InstrumentFor(vt.Symbol)
	snap, err := tickSnapshot(instrumentID, vt, e.cfg.Location)
	if err != nil {
		e.anomaly(exception.KindProtocolAnomaly, err, instrumentID, "")
		return
	}

	e.tickMu.Lock()
	e.latest[instrumentID] = snap
	e.tickMu.Unlock()

	dropped, err := e.ticks.Push(snap)
	if err != nil {
		logs.Debugf("tick of %s after exit, err: %+v", instrumentID, err)
		return
	}
	if dropped {
		e.metrics.IncTickDrop()
	}
}

func (e *Engine) OnPosition(vp schema.VenuePosition) {
	instrumentID := e.contracts.InstrumentFor(vp.Symbol)
	acct, found := e.accountFor(instrumentID, "")
	if !found {
		return
	}
	ct, _ := e.contracts.ContractFor(vp.Symbol)
	if !acct.BufferPosition(instrumentID, vp, ct) {
		logs.Debugf("ignore live position of %s %s", instrumentID, vp.Direction)
	}
}

func (e *Engine) OnPositionExtra(extra schema.VenuePositionExtra) {
	instrumentID := e.contracts.InstrumentFor(extra.Symbol)
	acct, found := e.accountFor(instrumentID, "")
	if !found {
		return
	}
	ct, _ := e.contracts.ContractFor(extra.Symbol)
	if !acct.BufferPositionExtra(instrumentID, extra, ct) {
		logs.Debugf("ignore live position extra of %s %s", instrumentID, extra.Direction)
	}
}

func (e *Engine) OnAccount(va schema.VenueAccount) {
	acct, found := e.accountFor("", "")
	if !found {
		return
	}
	if !acct.BufferBalance(va) {
		logs.Debugf("ignore live balance of account %s: %s", va.AccountID, va.Balance)
	}
}

func (e *Engine) OnContract(vc schema.VenueContract) {
	ct := e.contracts.PutContract(vc)
	logs.Debugf("contract %s (%s.%s), size: %s", ct.InstrumentID, ct.Symbol, ct.Exchange, ct.Size)
}

func (e *Engine) OnContractExtra(extra schema.VenueContractExtra) {
	if _, ok := e.contracts.PutContractExtra(extra); !ok {
		logs.Debugf("contract extra of %s held until its contract arrives", extra.Symbol)
	}
}

func (e *Engine) OnCommission(vc schema.VenueCommission) {
	info := e.contracts.PutCommission(vc)
	e.queryMu.Lock()
	delete(e.querying, vc.Symbol)
	e.queryMu.Unlock()
	logs.Debugf("commission of %s cached", info.InstrumentID)
}

func (e *Engine) OnLog(vl schema.VenueLog) {
	logs.Debugf("venue: %s %s", vl.Time, vl.Content)
}

// acknowledge publishes creation-acknowledged the first time the venue
// reports on a submitted order, be it an order report or a fill.
func (e *Engine) acknowledge(o *model.Order) {
	if o.Acknowledge() {
		e.notify(model.NotifyOrderCreationPass, o, nil)
	}
}

// bootstrapping reports whether the futures account still buffers bootstrap
// data. Nothing reaches the sink from the venue stream until it is done.
func (e *Engine) bootstrapping() bool {
	acct, ok := e.accounts[model.AccountTypeFuture]
	return ok && !acct.Inited()
}

// accountFor resolves the account owning an instrument. The bridge trades
// futures only.
func (e *Engine) accountFor(instrumentID, venueID string) (*account.Account, bool) {
	acct, ok := e.accounts[model.AccountTypeFuture]
	if !ok {
		e.anomaly(exception.KindAccountMismatch, errors.Wrapf(exception.ErrAccountNotFound, "account type: %s", model.AccountTypeFuture), instrumentID, venueID)
		return nil, false
	}
	return acct, true
}

// markTrade records a venue trade id and reports whether it was new.
func (e *Engine) markTrade(tradeID string) bool {
	e.tradeMu.Lock()
	defer e.tradeMu.Unlock()
	if _, ok := e.seenTrades[tradeID]; ok {
		return false
	}
	e.seenTrades[tradeID] = struct{}{}
	return true
}

// queryCommission asks the venue for a commission rule without blocking the
// caller. One query per symbol is in flight at a time.
func (e *Engine) queryCommission(symbol, exchange string) {
	e.queryMu.Lock()
	if _, ok := e.querying[symbol]; ok {
		e.queryMu.Unlock()
		return
	}
	e.querying[symbol] = struct{}{}
	e.queryMu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		err := e.gateway.QueryCommission(e.ctx, schema.CommissionQuery{Symbol: symbol, Exchange: exchange})
		if err == nil {
			return
		}
		logs.Warnf("query commission of %s, err: %+v", symbol, err)
		e.queryMu.Lock()
		delete(e.querying, symbol)
		e.queryMu.Unlock()
	}()
}

func commission(acct *account.Account, t *model.Trade) decimal.Decimal {
	if d := acct.CommissionDecider(); d != nil {
		return d.Commission(t)
	}
	return decimal.Zero
}

func tax(acct *account.Account, t *model.Trade) decimal.Decimal {
	if d := acct.TaxDecider(); d != nil {
		return d.Tax(t)
	}
	return decimal.Zero
}
