package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venuebridge/internal/account"
	"venuebridge/internal/model"
	"venuebridge/internal/obs"
	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	open     []string
	ticks    map[string]model.TickSnapshot
	accounts []*account.Account
	metrics  *obs.Metrics
}

func (s fakeSource) OpenOrders() []string { return s.open }

func (s fakeSource) LatestTick(id string) (model.TickSnapshot, bool) {
	snap, ok := s.ticks[id]
	return snap, ok
}

func (s fakeSource) Accounts() []*account.Account { return s.accounts }

func (s fakeSource) Metrics() *obs.Metrics { return s.metrics }

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func newRouter() http.Handler {
	metrics := obs.NewMetrics()
	metrics.IncAnomaly(exception.KindLookupFailure)
	metrics.ObserveEvent(schema.EventOrder, time.Millisecond)

	acct := account.New(model.AccountTypeFuture, time.Now(), nil, nil)
	acct.BufferBalance(schema.VenueAccount{Balance: decimal.NewFromInt(1000)})
	acct.Finalize()

	return NewRouter(RouterDeps{
		StartedAt: time.Now(),
		Source: fakeSource{
			open: []string{"SIM.s1.1", "SIM.s1.2"},
			ticks: map[string]model.TickSnapshot{
				"RB2410": {InstrumentID: "RB2410", Last: decimal.NewFromInt(3500)},
			},
			accounts: []*account.Account{acct},
			metrics:  metrics,
		},
	})
}

func TestHealthz(t *testing.T) {
	rec := serve(t, newRouter(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestOpenOrders(t *testing.T) {
	rec := serve(t, newRouter(), "/orders/open")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["SIM.s1.1","SIM.s1.2"]`, rec.Body.String())
}

func TestTicks(t *testing.T) {
	h := newRouter()

	rec := serve(t, h, "/ticks/rb2410")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]any
	require.NoError(t, sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "RB2410", snap["instrumentId"])
	assert.Equal(t, "3500", snap["last"])
	assert.Nil(t, snap["totalTurnover"])

	rec = serve(t, h, "/ticks/AG2412")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "AG2412")
}

func TestMetricsAndAccounts(t *testing.T) {
	h := newRouter()

	rec := serve(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap obs.Snapshot
	require.NoError(t, sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.AnomalyCounts["lookup_failure"])
	assert.Equal(t, uint64(1), snap.EventCounts["order"])

	rec = serve(t, h, "/accounts")
	require.Equal(t, http.StatusOK, rec.Code)
	var accounts []map[string]any
	require.NoError(t, sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, true, accounts[0]["inited"])
}
