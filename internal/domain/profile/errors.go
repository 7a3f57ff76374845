package profile

import "errors"

// Sentinel kinds for configuration errors. These fail a run before any
// record is processed.
var (
	ErrInvalidProfile  = errors.New("invalid profile configuration")
	ErrFeatureMismatch = errors.New("profiles disagree on feature set")
	ErrInvalidWeight   = errors.New("invalid feature weight")
)
