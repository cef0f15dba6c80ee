package schema

// EventType tags a venue notification. The set is closed: every venue event
// is one of the variants in events.go.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventOrder
	EventTrade
	EventTick
	EventPosition
	EventPositionExtra
	EventAccount
	EventContract
	EventContractExtra
	EventCommission
	EventLog
	_event_end
)

// MaxEventType is the highest defined event type.
const MaxEventType = int(_event_end) - 1

func (t EventType) IsAvailable() bool {
	return t > EventUnknown && t < _event_end
}

func (t EventType) String() string {
	switch t {
	case EventOrder:
		return "order"
	case EventTrade:
		return "trade"
	case EventTick:
		return "tick"
	case EventPosition:
		return "position"
	case EventPositionExtra:
		return "position_extra"
	case EventAccount:
		return "account"
	case EventContract:
		return "contract"
	case EventContractExtra:
		return "contract_extra"
	case EventCommission:
		return "commission"
	case EventLog:
		return "log"
	default:
		return "unknown"
	}
}

// ParseEventType is the inverse of String.
func ParseEventType(s string) EventType {
	for t := EventOrder; t < _event_end; t++ {
		if t.String() == s {
			return t
		}
	}
	return EventUnknown
}

// Event is implemented by every venue event variant.
type Event interface {
	Type() EventType
}

// Publisher accepts venue events from a venue connection.
type Publisher interface {
	Publish(Event) error
}
