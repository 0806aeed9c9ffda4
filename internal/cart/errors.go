package cart

import "errors"

var (
	ErrIndexOutOfRange = errors.New("cart line index out of range")
	ErrInvalidLine     = errors.New("invalid cart line")
)
