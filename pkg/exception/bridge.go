package exception

import "github.com/yanun0323/errors"

// Reconciliation errors. These are never returned from event handlers; they are
// carried inside an Anomaly.
var (
	ErrContractNotFound    = errors.New("bridge: contract not found")
	ErrUnknownVenueStatus  = errors.New("bridge: unknown venue order status")
	ErrUnmatchedOrder      = errors.New("bridge: venue order does not match any local order")
	ErrAccountNotFound     = errors.New("bridge: no account for instrument")
	ErrDuplicateTrade      = errors.New("bridge: trade already materialized")
	ErrVenueRequest        = errors.New("bridge: venue request failed")
	ErrOrderRecordNotFound = errors.New("bridge: venue order record not found")
)
