package og

import (
	"context"
	"sync"
	"testing"
	"time"

	"venuebridge/internal/account"
	"venuebridge/internal/bus"
	"venuebridge/internal/contract"
	"venuebridge/internal/model"
	"venuebridge/internal/obs"
	"venuebridge/internal/schema"
	venue_mock "venuebridge/internal/venue/mock"
	"venuebridge/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingSink struct {
	mu  sync.Mutex
	got []model.Notification
}

func (s *recordingSink) Notify(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
}

func (s *recordingSink) types() []model.NotificationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.NotificationType, 0, len(s.got))
	for _, n := range s.got {
		out = append(out, n.Type)
	}
	return out
}

func (s *recordingSink) anomalies() []exception.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []exception.Kind
	for _, n := range s.got {
		if n.Anomaly != nil {
			out = append(out, n.Anomaly.Kind)
		}
	}
	return out
}

func (s *recordingSink) trades() []*model.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Trade
	for _, n := range s.got {
		if n.Type == model.NotifyTrade {
			out = append(out, n.Trade)
		}
	}
	return out
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = nil
}

type fixture struct {
	engine    *Engine
	gateway   *venue_mock.MockGateway
	contracts *contract.Cache
	account   *account.Account
	sink      *recordingSink
	metrics   *obs.Metrics
}

func newFixture(t *testing.T, finalized bool) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := venue_mock.NewMockGateway(ctrl)

	cache := contract.NewCache(nil)
	cache.PutContract(schema.VenueContract{
		Symbol:       "rb2410",
		Exchange:     "SHFE",
		ProductClass: schema.ProductFutures,
		Size:         decimal.NewFromInt(10),
		PriceTick:    decimal.NewFromInt(1),
	})

	acct := account.New(model.AccountTypeFuture, time.Now(), account.NewFutureCommission(cache, decimal.Zero), account.NoTax{})
	if finalized {
		acct.Finalize()
	}

	sink := &recordingSink{}
	metrics := obs.NewMetrics()
	e, err := New(Config{TickQueueSize: 2, TickPollTimeout: 20 * time.Millisecond}, Options{
		Gateway:    gw,
		Dispatcher: bus.NewDispatcher(metrics),
		Contracts:  cache,
		Accounts:   []*account.Account{acct},
		Sink:       sink,
		Metrics:    metrics,
	})
	require.NoError(t, err)

	return &fixture{engine: e, gateway: gw, contracts: cache, account: acct, sink: sink, metrics: metrics}
}

func limitOrder(id, instrumentID string, qty int64) *model.Order {
	return model.NewOrder(id, instrumentID, model.SideBuy, model.OrderTypeLimit, model.PositionEffectOpen, decimal.NewFromInt(qty), decimal.NewFromInt(3500))
}

func venueOrder(venueOrderID string, status schema.Status) schema.VenueOrder {
	return schema.VenueOrder{
		VenueOrderID: venueOrderID,
		OrderID:      "1",
		SessionID:    "s1",
		Symbol:       "rb2410",
		Exchange:     "SHFE",
		Direction:    schema.DirectionLong,
		Offset:       schema.OffsetOpen,
		Status:       status,
	}
}

func venueTrade(tradeID, venueOrderID string, qty int64) schema.VenueTrade {
	return schema.VenueTrade{
		TradeID:      tradeID,
		VenueOrderID: venueOrderID,
		Symbol:       "rb2410",
		Exchange:     "SHFE",
		Direction:    schema.DirectionLong,
		Offset:       schema.OffsetOpen,
		Price:        decimal.NewFromInt(3500),
		Volume:       decimal.NewFromInt(qty),
		TradeTime:    "09:30:01",
	}
}

// submitted sends o through the mocked venue as venueOrderID.
func (f *fixture) submitted(t *testing.T, o *model.Order, venueOrderID string) {
	t.Helper()
	f.gateway.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).Return(venueOrderID, nil)
	require.NoError(t, f.engine.SendOrder(t.Context(), o))
	f.sink.reset()
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{}, Options{})
	require.ErrorIs(t, err, exception.ErrNilInstance)

	ctrl := gomock.NewController(t)
	_, err = New(Config{}, Options{
		Gateway:    venue_mock.NewMockGateway(ctrl),
		Dispatcher: bus.NewDispatcher(nil),
		Contracts:  contract.NewCache(nil),
		Accounts:   []*account.Account{nil},
	})
	require.ErrorIs(t, err, exception.ErrNilInstance)
}

func TestSendOrderWithoutContract(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "AG2412", 1)

	require.NoError(t, f.engine.SendOrder(t.Context(), o))

	assert.Equal(t, model.OrderStatusCancelled, o.Status())
	assert.Equal(t, "No contract exists whose instrument id is AG2412", o.Message())
	assert.Equal(t, []model.NotificationType{
		model.NotifyOrderPendingNew,
		model.NotifyOrderPendingCancel,
		model.NotifyOrderCancellationPass,
		model.NotifyAnomaly,
	}, f.sink.types())
	assert.Equal(t, []exception.Kind{exception.KindLookupFailure}, f.sink.anomalies())
}

func TestFinalOrdersAreIgnored(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 1)
	o.MarkRejected("rejected earlier")

	require.NoError(t, f.engine.SendOrder(t.Context(), o))
	require.NoError(t, f.engine.CancelOrder(t.Context(), o))
	assert.Empty(t, f.sink.types())
	assert.Equal(t, model.OrderStatusRejected, o.Status())

	require.ErrorIs(t, f.engine.SendOrder(t.Context(), nil), exception.ErrNilInstance)
}

func TestSendOrderTranslatesRequest(t *testing.T) {
	f := newFixture(t, true)
	o := model.NewOrder("o-1", "RB2410", model.SideSell, model.OrderTypeMarket, model.PositionEffectCloseToday, decimal.NewFromInt(2), decimal.Zero)

	var got schema.OrderRequest
	f.gateway.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req schema.OrderRequest) (string, error) {
			got = req
			return "SIM.s1.1", nil
		})

	require.NoError(t, f.engine.SendOrder(t.Context(), o))

	assert.Equal(t, "rb2410", got.Symbol)
	assert.Equal(t, "SHFE", got.Exchange)
	assert.Equal(t, schema.DirectionShort, got.Direction)
	assert.Equal(t, schema.PriceTypeMarket, got.PriceType)
	assert.Equal(t, schema.OffsetCloseToday, got.Offset)
	assert.Equal(t, schema.CurrencyCNY, got.Currency)
	assert.Equal(t, schema.ProductFutures, got.ProductClass)
	assert.True(t, got.Volume.Equal(decimal.NewFromInt(2)))

	indexed, ok := f.engine.Order("SIM.s1.1")
	require.True(t, ok)
	assert.Same(t, o, indexed)
	assert.Equal(t, model.OrderStatusPendingNew, o.Status())
	assert.Equal(t, []model.NotificationType{model.NotifyOrderPendingNew}, f.sink.types())
}

func TestSendOrderVenueFailure(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 1)
	f.gateway.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).Return("", exception.ErrVenueNotConnected)

	err := f.engine.SendOrder(t.Context(), o)
	require.ErrorIs(t, err, exception.ErrVenueNotConnected)
	assert.Equal(t, model.OrderStatusRejected, o.Status())
	assert.Equal(t, []model.NotificationType{
		model.NotifyOrderPendingNew,
		model.NotifyOrderCreationReject,
		model.NotifyAnomaly,
	}, f.sink.types())
	assert.Equal(t, []exception.Kind{exception.KindVenueFailure}, f.sink.anomalies())
}

func TestAcknowledgmentActivatesOnce(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 2)
	f.submitted(t, o, "SIM.s1.1")

	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusPartTraded))
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusPartTraded))

	assert.Equal(t, model.OrderStatusActive, o.Status())
	assert.Equal(t, []string{"SIM.s1.1"}, f.engine.OpenOrders())
	assert.Equal(t, []model.NotificationType{model.NotifyOrderCreationPass}, f.sink.types())
}

func TestCreationPassWhenFillArrivesFirst(t *testing.T) {
	f := newFixture(t, true)
	f.engine.OnCommission(schema.VenueCommission{Symbol: "rb2410", OpenRatioByMoney: decimal.RequireFromString("0.0001")})
	o := limitOrder("o-1", "RB2410", 3)
	f.submitted(t, o, "SIM.s1.1")

	f.engine.OnTrade(venueTrade("T1", "SIM.s1.1", 1))
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusPartTraded))

	assert.Equal(t, []model.NotificationType{
		model.NotifyOrderCreationPass,
		model.NotifyTrade,
	}, f.sink.types())
	assert.True(t, o.Acknowledged())
	assert.Equal(t, model.OrderStatusPartiallyFilled, o.Status())
	assert.Equal(t, []string{"SIM.s1.1"}, f.engine.OpenOrders())
	assert.True(t, o.FilledQuantity().Equal(decimal.NewFromInt(1)))
}

func TestCreationPassWhenCancelArrivesFirst(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 2)
	f.submitted(t, o, "SIM.s1.1")

	f.gateway.EXPECT().CancelOrder(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, f.engine.CancelOrder(t.Context(), o))
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusNotTraded))
	assert.Equal(t, model.OrderStatusPendingCancel, o.Status())

	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusCancelled))

	assert.Equal(t, []model.NotificationType{
		model.NotifyOrderPendingCancel,
		model.NotifyOrderCreationPass,
		model.NotifyOrderCancellationPass,
	}, f.sink.types())
	assert.Equal(t, model.OrderStatusCancelled, o.Status())
	assert.Empty(t, f.engine.OpenOrders())
}

func TestUnknownStatusIsDropped(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 2)
	f.submitted(t, o, "SIM.s1.1")
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusNotTraded))
	f.sink.reset()

	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusUnknown))

	assert.Equal(t, model.OrderStatusActive, o.Status())
	assert.Equal(t, []string{"SIM.s1.1"}, f.engine.OpenOrders())
	assert.Equal(t, []exception.Kind{exception.KindProtocolAnomaly}, f.sink.anomalies())
	assert.Equal(t, uint64(1), f.metrics.Snapshot().AnomalyCounts[exception.KindProtocolAnomaly.String()])
}

func TestUnknownStatusDuringBootstrapIsNotPublished(t *testing.T) {
	f := newFixture(t, false)

	f.engine.OnOrder(venueOrder("OLD.1", schema.StatusUnknown))
	f.engine.OnOrder(venueOrder("OLD.2", ""))

	assert.Empty(t, f.sink.types())
	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.AnomalyCounts[exception.KindProtocolAnomaly.String()])
	assert.Empty(t, snap.NotificationCounts)

	require.True(t, f.account.Finalize())
	f.engine.OnOrder(venueOrder("NEW.1", schema.StatusUnknown))
	assert.Equal(t, []exception.Kind{exception.KindProtocolAnomaly}, f.sink.anomalies())
}

func TestCancelAcknowledged(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 2)
	f.submitted(t, o, "SIM.s1.1")
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusNotTraded))

	f.gateway.EXPECT().CancelOrder(gomock.Any(), schema.CancelRequest{
		Symbol:    "rb2410",
		Exchange:  "SHFE",
		OrderID:   "1",
		SessionID: "s1",
	}).Return(nil)
	require.NoError(t, f.engine.CancelOrder(t.Context(), o))
	assert.Equal(t, model.OrderStatusPendingCancel, o.Status())

	f.sink.reset()
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusCancelled))

	assert.Equal(t, model.OrderStatusCancelled, o.Status())
	assert.Equal(t, "order o-1 has been cancelled by user.", o.Message())
	assert.Empty(t, f.engine.OpenOrders())
	assert.Equal(t, []model.NotificationType{model.NotifyOrderCancellationPass}, f.sink.types())

	// redelivery changes nothing
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusCancelled))
	assert.Len(t, f.sink.types(), 1)
}

func TestUnsolicitedCancelRejects(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 2)
	f.submitted(t, o, "SIM.s1.1")
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusNotTraded))
	f.sink.reset()

	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusCancelled))

	assert.Equal(t, model.OrderStatusRejected, o.Status())
	assert.Equal(t, []model.NotificationType{model.NotifyOrderUnsolicitedUpdate}, f.sink.types())
	assert.Empty(t, f.engine.OpenOrders())
}

func TestCancelWithoutRecordGoesOutWithoutVenueKeys(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 2)
	f.submitted(t, o, "SIM.s1.1")

	f.gateway.EXPECT().CancelOrder(gomock.Any(), schema.CancelRequest{Symbol: "rb2410", Exchange: "SHFE"}).Return(nil)
	require.NoError(t, f.engine.CancelOrder(t.Context(), o))
	assert.Equal(t, []model.NotificationType{model.NotifyOrderPendingCancel}, f.sink.types())
}

func TestCancelVenueFailure(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 2)
	f.submitted(t, o, "SIM.s1.1")

	f.gateway.EXPECT().CancelOrder(gomock.Any(), gomock.Any()).Return(exception.ErrVenueClosed)
	require.ErrorIs(t, f.engine.CancelOrder(t.Context(), o), exception.ErrVenueClosed)
	assert.Equal(t, []exception.Kind{exception.KindVenueFailure}, f.sink.anomalies())
}

func TestTradeMaterialization(t *testing.T) {
	f := newFixture(t, true)
	f.engine.OnCommission(schema.VenueCommission{Symbol: "rb2410", OpenRatioByMoney: decimal.RequireFromString("0.0001")})

	o := limitOrder("o-1", "RB2410", 3)
	f.submitted(t, o, "SIM.s1.1")
	f.engine.OnOrder(venueOrder("SIM.s1.1", schema.StatusNotTraded))
	f.sink.reset()

	f.engine.OnTrade(venueTrade("T1", "SIM.s1.1", 1))
	assert.Equal(t, model.OrderStatusPartiallyFilled, o.Status())
	assert.True(t, f.engine.index.IsOpen("SIM.s1.1"))

	f.engine.OnTrade(venueTrade("T1", "SIM.s1.1", 1))
	f.engine.OnTrade(venueTrade("T2", "SIM.s1.1", 2))
	assert.Equal(t, model.OrderStatusFilled, o.Status())
	assert.Empty(t, f.engine.OpenOrders())

	trades := f.sink.trades()
	require.Len(t, trades, 2)
	assert.Equal(t, "o-1", trades[0].OrderID)
	assert.Equal(t, "RB2410", trades[0].InstrumentID)
	assert.True(t, trades[0].Commission.Equal(decimal.RequireFromString("3.5")), trades[0].Commission.String())
	assert.True(t, trades[1].Commission.Equal(decimal.RequireFromString("7")))
	assert.True(t, trades[0].Tax.IsZero())
	assert.Equal(t, 9, trades[0].Time.Hour())
	assert.Equal(t, 30, trades[0].Time.Minute())
	assert.True(t, o.TransactionCost().Equal(decimal.RequireFromString("10.5")))

	assert.Equal(t, []exception.Kind{exception.KindDuplicateEvent}, f.sink.anomalies())
}

func TestTradeWithoutLocalOrderSynthesizesOne(t *testing.T) {
	f := newFixture(t, true)
	f.engine.OnCommission(schema.VenueCommission{Symbol: "rb2410"})

	vt := venueTrade("T9", "MANUAL.1", 2)
	vt.Direction = schema.DirectionShort
	vt.Offset = schema.OffsetClose
	f.engine.OnTrade(vt)

	trades := f.sink.trades()
	require.Len(t, trades, 1)
	assert.NotEmpty(t, trades[0].OrderID)
	assert.Equal(t, model.SideSell, trades[0].Side)
	assert.Equal(t, model.PositionEffectClose, trades[0].PositionEffect)

	f.sink.mu.Lock()
	synthesized := f.sink.got[0].Order
	f.sink.mu.Unlock()
	assert.Equal(t, model.OrderStatusFilled, synthesized.Status())
	assert.Equal(t, trades[0].OrderID, synthesized.ID)
}

func TestTradeQueriesMissingCommissionOnce(t *testing.T) {
	f := newFixture(t, true)
	o := limitOrder("o-1", "RB2410", 3)
	f.submitted(t, o, "SIM.s1.1")

	queried := make(chan schema.CommissionQuery, 4)
	f.gateway.EXPECT().QueryCommission(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, q schema.CommissionQuery) error {
			queried <- q
			return nil
		}).Times(1)
	f.gateway.EXPECT().Close().Return(nil)

	f.engine.OnTrade(venueTrade("T1", "SIM.s1.1", 1))
	f.engine.OnTrade(venueTrade("T2", "SIM.s1.1", 1))

	// priced with no rule while the query is in flight
	trades := f.sink.trades()
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Commission.IsZero())

	require.NoError(t, f.engine.Exit())
	require.Len(t, queried, 1)
	assert.Equal(t, schema.CommissionQuery{Symbol: "rb2410", Exchange: "SHFE"}, <-queried)
}

func TestBootstrapBuffersWithoutNotifications(t *testing.T) {
	f := newFixture(t, false)
	f.engine.OnCommission(schema.VenueCommission{Symbol: "rb2410"})

	f.engine.OnPosition(schema.VenuePosition{Symbol: "rb2410", Direction: schema.DirectionLong, Position: decimal.NewFromInt(4), Price: decimal.NewFromInt(3400)})
	f.engine.OnPositionExtra(schema.VenuePositionExtra{Symbol: "rb2410", Direction: schema.DirectionLong, TodayPosition: decimal.NewFromInt(1)})
	f.engine.OnAccount(schema.VenueAccount{AccountID: "acc", Balance: decimal.NewFromInt(100000), Available: decimal.NewFromInt(90000)})
	f.engine.OnOrder(venueOrder("OLD.1", schema.StatusNotTraded))
	f.engine.OnTrade(venueTrade("OLD.T1", "OLD.1", 1))

	assert.Empty(t, f.sink.types())
	assert.Empty(t, f.engine.OpenOrders())

	require.True(t, f.account.Finalize())
	assert.Empty(t, f.sink.types())
	assert.Len(t, f.account.HistoricalOpenOrders(), 1)
	assert.Len(t, f.account.HistoricalTrades(), 1)
	pos, ok := f.account.Position("RB2410")
	require.True(t, ok)
	assert.True(t, pos.Long.Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, f.account.Balance().Total.Equal(decimal.NewFromInt(100000)))

	// live path after finalization
	f.engine.OnTrade(venueTrade("OLD.T1", "OLD.1", 1))
	f.engine.OnTrade(venueTrade("NEW.T1", "NEW.1", 1))
	f.engine.OnOrder(venueOrder("OLD.2", schema.StatusNotTraded))

	assert.Equal(t, []model.NotificationType{model.NotifyAnomaly, model.NotifyTrade, model.NotifyAnomaly}, f.sink.types())
	assert.Equal(t, []exception.Kind{exception.KindDuplicateEvent, exception.KindProtocolAnomaly}, f.sink.anomalies())
}

func TestEventsWithoutAccountAreReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := &recordingSink{}
	e, err := New(Config{}, Options{
		Gateway:    venue_mock.NewMockGateway(ctrl),
		Dispatcher: bus.NewDispatcher(nil),
		Contracts:  contract.NewCache(nil),
		Sink:       sink,
	})
	require.NoError(t, err)

	e.OnOrder(venueOrder("X.1", schema.StatusNotTraded))
	e.OnAccount(schema.VenueAccount{})
	assert.Equal(t, []exception.Kind{exception.KindAccountMismatch, exception.KindAccountMismatch}, sink.anomalies())
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t, true)
	f.gateway.EXPECT().Subscribe(gomock.Any(), schema.SubscribeRequest{
		Symbol:       "rb2410",
		Exchange:     "SHFE",
		ProductClass: schema.ProductFutures,
		Currency:     schema.CurrencyCNY,
	}).Return(nil).Times(2)

	require.NoError(t, f.engine.Subscribe(t.Context(), "RB2410"))
	require.NoError(t, f.engine.Subscribe(t.Context(), "AG2412"))
	assert.Equal(t, []exception.Kind{exception.KindLookupFailure}, f.sink.anomalies())

	f.engine.OnUniverseChanged(t.Context(), []string{"RB2410", "CU2411"})
	assert.Len(t, f.sink.anomalies(), 2)
}

func TestContractEventsFillCache(t *testing.T) {
	f := newFixture(t, true)
	f.engine.OnContract(schema.VenueContract{Symbol: "ag2412", Exchange: "SHFE", Size: decimal.NewFromInt(15)})
	f.engine.OnContractExtra(schema.VenueContractExtra{Symbol: "ag2412", Exchange: "SHFE", LongMarginRatio: decimal.RequireFromString("0.12")})
	f.engine.OnLog(schema.VenueLog{Time: "09:00:00", Content: "login ok"})

	ct, ok := f.contracts.ContractFor("ag2412")
	require.True(t, ok)
	assert.Equal(t, "AG2412", ct.InstrumentID)
	assert.True(t, ct.Size.Equal(decimal.NewFromInt(15)))
	assert.True(t, ct.LongMarginRatio.Equal(decimal.RequireFromString("0.12")))
}
