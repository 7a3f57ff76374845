package csvio

import "errors"

// Sentinel kinds for dataset I/O errors.
var (
	ErrOpenInput      = errors.New("open input failed")
	ErrOpenOutput     = errors.New("open output failed")
	ErrWriteOutput    = errors.New("write output failed")
	ErrNoHeader       = errors.New("input has no header row")
	ErrMalformedInput = errors.New("malformed input")
)
