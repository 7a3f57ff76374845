package testdata

import (
	"fmt"
)

// Default generation parameters.
const (
	DefaultNumRecords  = 1000
	DefaultAnomalyRate = 0.02
)

// Config controls synthetic dataset generation.
type Config struct {
	// NumRecords is the number of artist rows to generate.
	NumRecords int

	// Output is the CSV file path to write.
	Output string

	// AnomalyRate is the per-cell probability of emitting a malformed
	// value (empty or non-numeric) instead of a number, in [0, 1].
	AnomalyRate float64
}

// Validate applies fail-fast checks on the generation parameters.
func (c *Config) Validate() error {
	if c.NumRecords < 1 {
		return fmt.Errorf("records must be at least 1, got %d", c.NumRecords)
	}
	if c.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.AnomalyRate < 0 || c.AnomalyRate > 1 {
		return fmt.Errorf("anomaly rate must be in [0, 1], got %g", c.AnomalyRate)
	}
	return nil
}
