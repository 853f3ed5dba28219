package service

import "errors"

var (
	// ErrInvalidDeal wraps every rejected deal field; the wrapped message names the field.
	ErrInvalidDeal = errors.New("invalid deal")
	ErrInvalidTier = errors.New("invalid tier")
)
