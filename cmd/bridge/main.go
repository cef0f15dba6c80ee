package main

import (
	"context"
	"flag"
	"log"
	"time"

	"venuebridge/internal/account"
	"venuebridge/internal/bus"
	"venuebridge/internal/contract"
	"venuebridge/internal/httpserver"
	"venuebridge/internal/model"
	"venuebridge/internal/obs"
	"venuebridge/internal/og"
	"venuebridge/internal/ops"
	"venuebridge/internal/venue"
	"venuebridge/pkg/conn"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...any)  {}
func (emptyLogger) Debugf(_ string, _ ...any) {}
func (emptyLogger) Errorf(_ string, _ ...any) {}

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if cfg.Profiler.Address != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.Profiler.AppName,
			ServerAddress:   cfg.Profiler.Address,
			Tags: map[string]string{
				"venue": cfg.Venue.Type,
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store *contract.Store
	if cfg.Store.Enabled() {
		client, err := conn.New(cfg.Store.Option())
		if err != nil {
			log.Fatalf("store connect failed: %v", err)
		}
		defer func() {
			_ = client.Close()
		}()
		if err := client.Ping(ctx); err != nil {
			log.Fatalf("store unreachable: %v", err)
		}
		logs.Infof("contract store on %s", client.Driver())
		store, err = contract.NewStore(client.DB())
		if err != nil {
			log.Fatalf("contract store init failed: %v", err)
		}
	}

	contracts := contract.NewCache(store)
	defer contracts.Close()
	if err := contracts.Load(ctx); err != nil {
		log.Fatalf("contract cache load failed: %v", err)
	}

	loc, err := cfg.Engine.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}
	start, err := cfg.Account.Start(loc)
	if err != nil {
		log.Fatalf("account start date: %v", err)
	}
	future := account.New(
		model.AccountTypeFuture,
		start,
		account.NewFutureCommission(contracts, cfg.Account.CommissionMultiplier),
		account.NoTax{},
	)

	metrics := obs.NewMetrics()
	dispatcher := bus.NewDispatcher(metrics)

	gateway, err := venue.New(cfg.Gateway(), dispatcher)
	if err != nil {
		log.Fatalf("venue gateway: %v", err)
	}

	engine, err := og.New(cfg.Engine.Engine(), og.Options{
		Gateway:    gateway,
		Dispatcher: dispatcher,
		Contracts:  contracts,
		Accounts:   []*account.Account{future},
		Sink:       og.SinkFunc(newNotificationSink(future)),
		Metrics:    metrics,
	})
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}
	defer func() {
		if err := engine.Exit(); err != nil {
			logs.Errorf("engine exit, err: %+v", err)
		}
	}()

	if err := engine.Connect(ctx); err != nil {
		log.Fatalf("venue connect failed: %v", err)
	}
	if err := engine.InitAccount(ctx); err != nil {
		log.Fatalf("account init failed: %v", err)
	}
	engine.OnUniverseChanged(ctx, cfg.Universe)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Source:    engine,
		StartedAt: time.Now(),
	})
	go func() {
		if err := httpserver.Serve(ctx, cfg.HTTP.Addr, router); err != nil {
			logs.Errorf("http server, err: %+v", err)
		}
	}()

	go consumeTicks(ctx, engine)

	logs.Infof("venue bridge started, venue: %s, universe: %v", cfg.Venue.Type, cfg.Universe)
	<-sys.Shutdown()
	logs.Info("shutting down")
	cancel()
}

// newNotificationSink books trades into the ledger and logs the rest.
func newNotificationSink(acct *account.Account) func(model.Notification) {
	return func(n model.Notification) {
		switch n.Type {
		case model.NotifyTrade:
			if n.Trade != nil && !acct.ApplyTrade(n.Trade) {
				logs.Warnf("trade %s arrived before account init", n.Trade.ID)
			}
		case model.NotifyAnomaly:
			if n.Anomaly != nil {
				logs.Warnf("anomaly %s, instrument: %s, venue id: %s, err: %+v", n.Anomaly.Kind, n.Anomaly.InstrumentID, n.Anomaly.VenueID, n.Anomaly.Err)
			}
		default:
			if n.Order != nil {
				logs.Debugf("%s, order: %s, status: %s", n.Type, n.Order.ID, n.Order.Status())
			}
		}
	}
}

func consumeTicks(ctx context.Context, engine *og.Engine) {
	for {
		tick, err := engine.GetTick(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logs.Warnf("get tick, err: %+v", err)
			}
			return
		}
		logs.Debugf("tick %s, last: %s", tick.InstrumentID, tick.Last)
	}
}
