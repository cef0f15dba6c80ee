package httpserver

import (
	"net/http"
	"strings"
	"time"

	"venuebridge/internal/account"
	"venuebridge/internal/model"
	"venuebridge/internal/obs"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/yanun0323/logs"
)

// Source is the read-only view of the bridge served over HTTP.
type Source interface {
	OpenOrders() []string
	LatestTick(instrumentID string) (model.TickSnapshot, bool)
	Accounts() []*account.Account
	Metrics() *obs.Metrics
}

type RouterDeps struct {
	Source    Source
	StartedAt time.Time
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

type accountResponse struct {
	Type      string             `json:"type"`
	Inited    bool               `json:"inited"`
	Balance   account.Balance    `json:"balance"`
	Positions []account.Position `json:"positions"`
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Uptime: time.Since(d.StartedAt).Truncate(time.Second).String()})
	})

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, d.Source.Metrics().Snapshot())
	})

	r.Get("/orders/open", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, d.Source.OpenOrders())
	})

	r.Get("/ticks/{instrument}", func(w http.ResponseWriter, r *http.Request) {
		id := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "instrument")))
		snap, ok := d.Source.LatestTick(id)
		if !ok {
			WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "no tick for " + id})
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	})

	r.Get("/accounts", func(w http.ResponseWriter, r *http.Request) {
		accounts := d.Source.Accounts()
		out := make([]accountResponse, 0, len(accounts))
		for _, acct := range accounts {
			out = append(out, accountResponse{
				Type:      acct.Type().String(),
				Inited:    acct.Inited(),
				Balance:   acct.Balance(),
				Positions: acct.Positions(),
			})
		}
		WriteJSON(w, http.StatusOK, out)
	})

	return r
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		logs.Errorf("encode http response, err: %+v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
