package exception

import "fmt"

// Kind classifies a recovered failure so callers can assert on it without
// parsing log text.
type Kind uint8

const (
	_kind_beg Kind = iota
	KindConfiguration
	KindLookupFailure
	KindProtocolAnomaly
	KindAccountMismatch
	KindDuplicateEvent
	KindVenueFailure
	_kind_end
)

func (k Kind) IsAvailable() bool {
	return k > _kind_beg && k < _kind_end
}

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindLookupFailure:
		return "lookup_failure"
	case KindProtocolAnomaly:
		return "protocol_anomaly"
	case KindAccountMismatch:
		return "account_mismatch"
	case KindDuplicateEvent:
		return "duplicate_event"
	case KindVenueFailure:
		return "venue_failure"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MaxKind is the highest defined kind, used to size counters.
const MaxKind = int(_kind_end) - 1

// Anomaly is a recovered failure surfaced on the notification channel.
type Anomaly struct {
	Kind         Kind
	Err          error
	InstrumentID string
	VenueID      string
}

func (a Anomaly) Error() string {
	if a.Err == nil {
		return a.Kind.String()
	}
	return a.Kind.String() + ": " + a.Err.Error()
}

func (a Anomaly) Unwrap() error {
	return a.Err
}
