package exception

import "github.com/yanun0323/errors"

var (
	ErrConfigInvalid = errors.New("config: invalid value")
	ErrStoreDriver   = errors.New("config: unsupported store driver")
)
