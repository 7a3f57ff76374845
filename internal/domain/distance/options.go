package distance

import "github.com/okian/encore/pkg/logger"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWorkerCount sets the number of goroutines used by AnnotateAll.
func WithWorkerCount(count int) Option {
	return func(c *Calculator) {
		if count > 0 {
			c.workers = count
		}
	}
}

// WithLogger sets a custom logger for anomaly reporting.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}
