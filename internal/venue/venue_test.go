package venue

import (
	"testing"

	"venuebridge/internal/schema"
	"venuebridge/internal/venue/sim"
	"venuebridge/internal/venue/wsgw"
	"venuebridge/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discard struct{}

func (discard) Publish(schema.Event) error { return nil }

func TestNewSelectsGateway(t *testing.T) {
	gw, err := New(Config{Type: "sim"}, discard{})
	require.NoError(t, err)
	assert.IsType(t, &sim.Gateway{}, gw)

	gw, err = New(Config{Type: TypeWebsocket, Websocket: wsgw.Config{URL: "ws://localhost:1"}}, discard{})
	require.NoError(t, err)
	assert.IsType(t, &wsgw.Gateway{}, gw)
}

func TestNewRejectsUnsupportedGateway(t *testing.T) {
	_, err := New(Config{Type: "CTP"}, discard{})
	require.ErrorIs(t, err, exception.ErrUnsupportedGateway)

	_, err = New(Config{Type: TypeSim}, nil)
	require.ErrorIs(t, err, exception.ErrNilInstance)
}
