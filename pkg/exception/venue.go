package exception

import "github.com/yanun0323/errors"

var (
	ErrUnsupportedGateway = errors.New("venue: unsupported gateway type")
	ErrVenueNotConnected  = errors.New("venue: not connected")
	ErrVenueClosed        = errors.New("venue: connection closed")
	ErrVenueUnknownOrder  = errors.New("venue: unknown order")
	ErrVenueInvalidFrame  = errors.New("venue: invalid frame")
	ErrVenueUnknownEvent  = errors.New("venue: unknown event type")
	ErrVenueMissingField  = errors.New("venue: request field missing")
)
