package book

import "errors"

var (
	ErrOverfill        = errors.New("fill exceeds remaining quantity")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrInvalidSide     = errors.New("unknown side")
	ErrInvalidType     = errors.New("unknown order type")
	ErrShutdown        = errors.New("engine is shutting down")
	ErrTimeout         = errors.New("timeout")
	ErrSequenceGap     = errors.New("sequence gap detected")
)
