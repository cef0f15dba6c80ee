package wsgw

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Config locates a websocket venue bridge.
type Config struct {
	URL              string
	Session          string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	DialAttempts     int
	Backoff          Backoff
}

// Gateway speaks the framed JSON protocol of a remote venue bridge over one
// websocket connection. Inbound frames are decoded on a single read loop and
// published in arrival order.
type Gateway struct {
	cfg    Config
	pub    schema.Publisher
	dialer *websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn
	closed  atomic.Bool
	seq     atomic.Uint64
	done    chan struct{}
	wg      sync.WaitGroup
}

func New(cfg Config, pub schema.Publisher) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, errors.Wrap(exception.ErrConfigInvalid, "websocket venue url is empty")
	}
	if cfg.Session == "" {
		cfg.Session = uuid.NewString()[:8]
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.DialAttempts <= 0 {
		cfg.DialAttempts = 1
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff()
	}

	return &Gateway{
		cfg: cfg,
		pub: pub,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		done: make(chan struct{}),
	}, nil
}

func (g *Gateway) ConnectAndInitContracts(ctx context.Context) error {
	if g.closed.Load() {
		return exception.ErrVenueClosed
	}
	if err := g.dial(ctx); err != nil {
		return err
	}
	return g.send(RequestQueryContracts, "", nil)
}

func (g *Gateway) InitAccount(context.Context) error {
	return g.send(RequestQueryAccount, "", nil)
}

// SubmitOrder assigns the venue order id locally so the caller learns it
// before the venue acknowledges.
func (g *Gateway) SubmitOrder(_ context.Context, req schema.OrderRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	orderID := strconv.FormatUint(g.seq.Add(1), 10)
	venueOrderID := fmt.Sprintf("WS.%s.%s", g.cfg.Session, orderID)
	payload := SubmitOrder{
		VenueOrderID: venueOrderID,
		OrderID:      orderID,
		SessionID:    g.cfg.Session,
		OrderRequest: req,
	}
	if err := g.send(RequestSubmitOrder, venueOrderID, payload); err != nil {
		return "", err
	}
	return venueOrderID, nil
}

func (g *Gateway) CancelOrder(_ context.Context, req schema.CancelRequest) error {
	return g.send(RequestCancelOrder, "", req)
}

func (g *Gateway) Subscribe(_ context.Context, req schema.SubscribeRequest) error {
	return g.send(RequestSubscribe, "", req)
}

func (g *Gateway) QueryCommission(_ context.Context, query schema.CommissionQuery) error {
	return g.send(RequestQueryCommission, "", query)
}

func (g *Gateway) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(g.done)

	g.writeMu.Lock()
	conn := g.conn
	var err error
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(g.cfg.WriteTimeout))
		err = conn.Close()
	}
	g.writeMu.Unlock()

	g.wg.Wait()
	return err
}

func (g *Gateway) dial(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.DialAttempts; attempt++ {
		conn, _, err := g.dialer.DialContext(ctx, g.cfg.URL, nil)
		if err == nil {
			g.writeMu.Lock()
			g.conn = conn
			g.writeMu.Unlock()

			g.wg.Add(1)
			go g.readLoop(conn)
			logs.Infof("websocket venue connected, url: %s, session: %s", g.cfg.URL, g.cfg.Session)
			return nil
		}

		lastErr = err
		if attempt == g.cfg.DialAttempts {
			break
		}
		wait := g.cfg.Backoff.Next(attempt)
		logs.Warnf("dial websocket venue %s, attempt %d, retry in %s, err: %+v", g.cfg.URL, attempt, wait, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return errors.Wrapf(lastErr, "dial %s", g.cfg.URL)
}

func (g *Gateway) send(kind, id string, payload any) error {
	if g.closed.Load() {
		return exception.ErrVenueClosed
	}
	msg, err := EncodeRequest(kind, id, payload)
	if err != nil {
		return err
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if g.conn == nil {
		return exception.ErrVenueNotConnected
	}
	if err := g.conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout)); err != nil {
		return errors.Wrap(exception.ErrVenueClosed, err.Error())
	}
	if err := g.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return errors.Wrapf(err, "write %s", kind)
	}
	return nil
}

func (g *Gateway) readLoop(conn *websocket.Conn) {
	defer g.wg.Done()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-g.done:
			default:
				logs.Errorf("websocket venue read, err: %+v", err)
			}
			return
		}

		ev, err := DecodeEvent(raw)
		if err != nil {
			logs.Warnf("drop websocket venue frame, err: %+v", err)
			continue
		}
		if err := g.pub.Publish(ev); err != nil {
			logs.Warnf("publish %s, err: %+v", ev.Type(), err)
		}
	}
}
