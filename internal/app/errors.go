package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownMode   = errors.New("unknown clustering mode")
	ErrSplitRegistry = errors.New("split mode requires exactly one profile")
)
