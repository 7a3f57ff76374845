// Package distance computes per-profile weighted Manhattan distances
// for every record and rescales them to a comparable [0, 1] range.
package distance

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/profile"
	"github.com/okian/encore/pkg/logger"
	"github.com/okian/encore/pkg/metrics"
)

// Calculator computes distances between records and archetype profiles.
// It holds only read-only configuration, so a single Calculator is safe
// for concurrent use.
type Calculator struct {
	registry *profile.Registry
	workers  int
	logger   logger.Logger
}

// New creates a Calculator bound to an immutable registry.
func New(registry *profile.Registry, opts ...Option) *Calculator {
	c := &Calculator{
		registry: registry,
		workers:  runtime.NumCPU(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.Get().Named("distance")
	}

	return c
}

// Distance returns the weighted Manhattan distance between a record and
// a profile: the sum over every profile feature of
// weight(feature) * |record_value - ideal_value|.
//
// A feature absent from the record counts as 0. A present but
// non-numeric value is reported and penalized with weight * ideal, the
// maximal distance on that feature: malformed data degrades a record's
// ranking instead of aborting the run.
func (c *Calculator) Distance(rec *model.Record, p profile.Profile) float64 {
	var d float64
	for feature, ideal := range p.Ideal {
		w := c.registry.Weight(feature)
		v, ok := rec.Feature(feature)
		if !ok {
			c.logger.Warn(context.Background(), "non-numeric feature value, applying max penalty",
				logger.String("feature", feature),
				logger.String("record", rec.Name),
				logger.String("profile", p.Name),
			)
			metrics.RecordDataAnomaly()
			d += w * ideal
			continue
		}
		d += w * math.Abs(v-ideal)
	}
	return d
}

// AnnotateAll computes every profile distance for every record, fanning
// the work out across a bounded pool of workers. Each record's
// distances depend only on that record and the immutable registry, so
// no ordering is required and no mutable state is shared.
func (c *Calculator) AnnotateAll(ctx context.Context, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordDistanceDuration(float64(time.Since(start).Milliseconds()))
	}()

	workers := c.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(records) {
		workers = len(records)
	}
	metrics.UpdateWorkerCount(workers)

	profiles := c.registry.Profiles()
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rec := records[i]
				for _, p := range profiles {
					rec.SetDistance(p.Name, c.Distance(rec, p))
				}
				metrics.RecordScored()
			}
		}()
	}

feed:
	for i := range records {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("distance annotation canceled: %w", err)
	}
	return nil
}

// Normalize rescales each profile's distance column independently by
// dividing every record's value by the column maximum, so profiles with
// different feature scales become comparable. When the dataset is empty
// or a column's maximum is 0 the divisor is 1, keeping the result
// defined.
//
// Normalize mutates the records in place and is not idempotent: a
// second pass would compress an already-normalized column further.
// Callers invoke it exactly once per run.
func Normalize(records []*model.Record, registry *profile.Registry) {
	if len(records) == 0 {
		return
	}

	col := make([]float64, len(records))
	for _, name := range registry.Names() {
		for i, rec := range records {
			col[i] = rec.Distance(name)
		}

		divisor := floats.Max(col)
		if divisor == 0 {
			divisor = 1
		}

		for _, rec := range records {
			rec.SetDistance(name, rec.Distance(name)/divisor)
		}
	}
}
