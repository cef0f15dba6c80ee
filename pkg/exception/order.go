package exception

import "github.com/yanun0323/errors"

var (
	ErrOrderInvalidTransition = errors.New("order: invalid state transition")
	ErrOrderInvalidFill       = errors.New("order: invalid fill quantity")
	ErrOrderOverFill          = errors.New("order: fill exceeds order quantity")
	ErrOrderUnsupportedSide   = errors.New("order: unsupported side")
	ErrOrderUnsupportedType   = errors.New("order: unsupported type")
	ErrOrderUnsupportedEffect = errors.New("order: unsupported position effect")
)
