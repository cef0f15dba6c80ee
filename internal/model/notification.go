package model

import "venuebridge/pkg/exception"

// NotificationType is the kind of lifecycle message delivered to the trading engine bus.
type NotificationType uint8

const (
	_notification_beg NotificationType = iota
	NotifyOrderPendingNew
	NotifyOrderCreationPass
	NotifyOrderCreationReject
	NotifyOrderPendingCancel
	NotifyOrderCancellationPass
	NotifyOrderUnsolicitedUpdate
	NotifyTrade
	NotifyAnomaly
	_notification_end
)

// MaxNotificationType is the highest defined type, used to size counters.
const MaxNotificationType = int(_notification_end) - 1

func (n NotificationType) IsAvailable() bool {
	return n > _notification_beg && n < _notification_end
}

func (n NotificationType) String() string {
	switch n {
	case NotifyOrderPendingNew:
		return "order_pending_new"
	case NotifyOrderCreationPass:
		return "order_creation_pass"
	case NotifyOrderCreationReject:
		return "order_creation_reject"
	case NotifyOrderPendingCancel:
		return "order_pending_cancel"
	case NotifyOrderCancellationPass:
		return "order_cancellation_pass"
	case NotifyOrderUnsolicitedUpdate:
		return "order_unsolicited_update"
	case NotifyTrade:
		return "trade"
	case NotifyAnomaly:
		return "anomaly"
	default:
		return "unknown"
	}
}

// Notification is one message for the trading engine bus. Order is set for
// order notifications, Trade (and Order) for trades, Anomaly for anomalies.
type Notification struct {
	Type    NotificationType
	Account AccountType
	Order   *Order
	Trade   *Trade
	Anomaly *exception.Anomaly
}
