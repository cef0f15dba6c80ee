package venue

import (
	"context"
	"strings"

	"venuebridge/internal/schema"
	"venuebridge/internal/venue/sim"
	"venuebridge/internal/venue/wsgw"
	"venuebridge/pkg/exception"

	"github.com/yanun0323/errors"
)

// Gateway is the venue connection capability. Request methods return once the
// request is handed to the venue; outcomes arrive later as venue events.
//
//go:generate mockgen -source venue.go -destination=mock/gateway_mock.go -package=venue_mock
type Gateway interface {
	ConnectAndInitContracts(ctx context.Context) error
	InitAccount(ctx context.Context) error
	// SubmitOrder returns the venue order id before any acknowledgment is published.
	SubmitOrder(ctx context.Context, req schema.OrderRequest) (string, error)
	CancelOrder(ctx context.Context, req schema.CancelRequest) error
	Subscribe(ctx context.Context, req schema.SubscribeRequest) error
	QueryCommission(ctx context.Context, query schema.CommissionQuery) error
	Close() error
}

// Type names a gateway implementation.
type Type string

const (
	TypeSim       Type = "SIM"
	TypeWebsocket Type = "WS"
)

// Config selects and configures a gateway.
type Config struct {
	Type      Type
	Sim       sim.Config
	Websocket wsgw.Config
}

// New builds the configured gateway. Events are published to pub.
func New(cfg Config, pub schema.Publisher) (Gateway, error) {
	if pub == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "venue publisher")
	}
	switch Type(strings.ToUpper(string(cfg.Type))) {
	case TypeSim:
		return sim.New(cfg.Sim, pub), nil
	case TypeWebsocket:
		return wsgw.New(cfg.Websocket, pub)
	default:
		return nil, errors.Wrapf(exception.ErrUnsupportedGateway, "type: %q", cfg.Type)
	}
}
