package wsgw

import (
	"encoding/json"

	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// Frame is the envelope of every message on the wire. Outbound requests carry
// a locally generated ID; inbound events carry the schema event type name.
type Frame struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	RequestQueryContracts  = "query_contracts"
	RequestQueryAccount    = "query_account"
	RequestSubmitOrder     = "submit_order"
	RequestCancelOrder     = "cancel_order"
	RequestSubscribe       = "subscribe"
	RequestQueryCommission = "query_commission"
)

// SubmitOrder is the submit payload. VenueOrderID is assigned by the client
// so the id is known before the venue acknowledges.
type SubmitOrder struct {
	VenueOrderID string `json:"vtOrderId"`
	OrderID      string `json:"orderId"`
	SessionID    string `json:"sessionId"`
	schema.OrderRequest
}

func EncodeRequest(kind, id string, payload any) ([]byte, error) {
	f := Frame{Type: kind, ID: id}
	if payload != nil {
		data, err := sonic.ConfigStd.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s payload", kind)
		}
		f.Data = data
	}
	return sonic.ConfigStd.Marshal(f)
}

// DecodeEvent turns one inbound frame into a venue event.
func DecodeEvent(raw []byte) (schema.Event, error) {
	var f Frame
	if err := sonic.ConfigStd.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(exception.ErrVenueInvalidFrame, err.Error())
	}

	switch t := schema.ParseEventType(f.Type); t {
	case schema.EventOrder:
		return decode[schema.VenueOrder](f)
	case schema.EventTrade:
		return decode[schema.VenueTrade](f)
	case schema.EventTick:
		return decode[schema.VenueTick](f)
	case schema.EventPosition:
		return decode[schema.VenuePosition](f)
	case schema.EventPositionExtra:
		return decode[schema.VenuePositionExtra](f)
	case schema.EventAccount:
		return decode[schema.VenueAccount](f)
	case schema.EventContract:
		return decode[schema.VenueContract](f)
	case schema.EventContractExtra:
		return decode[schema.VenueContractExtra](f)
	case schema.EventCommission:
		return decode[schema.VenueCommission](f)
	case schema.EventLog:
		return decode[schema.VenueLog](f)
	default:
		return nil, errors.Wrapf(exception.ErrVenueUnknownEvent, "type: %q", f.Type)
	}
}

func decode[T schema.Event](f Frame) (schema.Event, error) {
	var ev T
	if len(f.Data) == 0 {
		return nil, errors.Wrapf(exception.ErrVenueInvalidFrame, "%s frame without data", f.Type)
	}
	if err := sonic.ConfigStd.Unmarshal(f.Data, &ev); err != nil {
		return nil, errors.Wrapf(exception.ErrVenueInvalidFrame, "decode %s: %s", f.Type, err.Error())
	}
	return ev, nil
}
