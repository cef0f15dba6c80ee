package model

// Side buy, sell
type Side uint8

const (
	_side_beg Side = iota
	SideBuy
	SideSell
	_side_end
)

func (s Side) IsAvailable() bool {
	return s > _side_beg && s < _side_end
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// OrderType market, limit
type OrderType uint8

const (
	_order_type_beg OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
	_order_type_end
)

func (t OrderType) IsAvailable() bool {
	return t > _order_type_beg && t < _order_type_end
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	default:
		return "UNKNOWN"
	}
}

// PositionEffect open, close, close today
type PositionEffect uint8

const (
	_position_effect_beg PositionEffect = iota
	PositionEffectOpen
	PositionEffectClose
	PositionEffectCloseToday
	_position_effect_end
)

func (p PositionEffect) IsAvailable() bool {
	return p > _position_effect_beg && p < _position_effect_end
}

func (p PositionEffect) String() string {
	switch p {
	case PositionEffectOpen:
		return "OPEN"
	case PositionEffectClose:
		return "CLOSE"
	case PositionEffectCloseToday:
		return "CLOSE_TODAY"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus pending new, active, partially filled, filled, pending cancel, cancelled, rejected
type OrderStatus uint8

const (
	_order_status_beg OrderStatus = iota
	OrderStatusPendingNew
	OrderStatusActive
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusPendingCancel
	OrderStatusCancelled
	OrderStatusRejected
	_order_status_end
)

func (s OrderStatus) IsAvailable() bool {
	return s > _order_status_beg && s < _order_status_end
}

// IsFinal reports whether no further transition is allowed.
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPendingNew:
		return "PENDING_NEW"
	case OrderStatusActive:
		return "ACTIVE"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusPendingCancel:
		return "PENDING_CANCEL"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// AccountType future
type AccountType uint8

const (
	_account_type_beg AccountType = iota
	AccountTypeFuture
	_account_type_end
)

func (a AccountType) IsAvailable() bool {
	return a > _account_type_beg && a < _account_type_end
}

func (a AccountType) String() string {
	switch a {
	case AccountTypeFuture:
		return "FUTURE"
	default:
		return "UNKNOWN"
	}
}
