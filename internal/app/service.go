// Package service orchestrates a clustering run: distance annotation,
// normalization, assignment, and summary reporting.
package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/okian/encore/internal/adapters/milp"
	"github.com/okian/encore/internal/domain/assign"
	"github.com/okian/encore/internal/domain/distance"
	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/profile"
	"github.com/okian/encore/pkg/logger"
	"github.com/okian/encore/pkg/metrics"
)

// Clustering modes.
const (
	// ModeArchetypes assigns every record to one of K archetype clusters
	// with per-cluster occupancy floors.
	ModeArchetypes = "archetypes"

	// ModeSplit labels records against a single ideal profile with one
	// global Ready floor.
	ModeSplit = "split"
)

// Summary reports the outcome of one clustering run.
type Summary struct {
	// RunID identifies this run in logs and downstream systems.
	RunID string

	// Records is the number of records processed.
	Records int

	// ClusterCounts maps each cluster label to its final size.
	ClusterCounts map[string]int

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
}

// Service runs the clustering pipeline over an in-memory dataset.
type Service struct {
	registry *profile.Registry

	// Configuration
	mode           string
	workerCount    int
	solveTimeout   time.Duration
	minClusterSize int
	minReady       int
	readyLabel     string
	notReadyLabel  string
	solver         milp.Solver

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMode selects the clustering variant: ModeArchetypes or ModeSplit.
func WithMode(mode string) Option {
	return func(s *Service) {
		if mode != "" {
			s.mode = mode
		}
	}
}

// WithWorkerCount sets the number of distance workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithSolveTimeout bounds the assignment solve. Zero means no deadline.
func WithSolveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.solveTimeout = d
		}
	}
}

// WithMinClusterSize overrides the derived per-cluster occupancy floor.
func WithMinClusterSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.minClusterSize = size
		}
	}
}

// WithMinReady sets the global Ready floor used by split mode.
func WithMinReady(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minReady = n
		}
	}
}

// WithSplitLabels sets the labels split mode writes.
func WithSplitLabels(ready, notReady string) Option {
	return func(s *Service) {
		if ready != "" && notReady != "" {
			s.readyLabel = ready
			s.notReadyLabel = notReady
		}
	}
}

// WithSolver sets the assignment backend.
func WithSolver(solver milp.Solver) Option {
	return func(s *Service) {
		if solver != nil {
			s.solver = solver
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service bound to an immutable profile registry.
func New(registry *profile.Registry, opts ...Option) *Service {
	s := &Service{
		registry:      registry,
		mode:          ModeArchetypes,
		workerCount:   runtime.NumCPU(),
		minReady:      1,
		readyLabel:    "Ready",
		notReadyLabel: "Not Ready",
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	return s
}

// Run executes one clustering run over the records, mutating them in
// place: every record gains its per-profile distances and a cluster
// label. On error no labels are written; distances may already be
// annotated.
func (s *Service) Run(ctx context.Context, records []*model.Record) (Summary, error) {
	start := time.Now()
	runID := uuid.NewString()

	sum := Summary{
		RunID:         runID,
		Records:       len(records),
		ClusterCounts: make(map[string]int),
	}

	metrics.UpdateRecordCount(len(records))
	metrics.UpdateProfileCount(s.registry.Len())

	s.logger.Info(ctx, "clustering run started",
		logger.String("runID", runID),
		logger.String("mode", s.mode),
		logger.Int("records", len(records)),
		logger.Int("profiles", s.registry.Len()),
	)

	calc := distance.New(s.registry,
		distance.WithWorkerCount(s.workerCount),
		distance.WithLogger(s.logger.Named("distance")),
	)
	if err := calc.AnnotateAll(ctx, records); err != nil {
		return sum, err
	}
	distance.Normalize(records, s.registry)

	if err := s.assignLabels(ctx, records); err != nil {
		return sum, err
	}

	for _, rec := range records {
		sum.ClusterCounts[rec.Cluster]++
	}
	sum.Duration = time.Since(start)

	metrics.RecordRunCompleted()
	s.logger.Info(ctx, "clustering run completed",
		logger.String("runID", runID),
		logger.Any("clusterCounts", sum.ClusterCounts),
		logger.Any("duration", sum.Duration),
	)

	return sum, nil
}

// assignLabels dispatches to the configured clustering variant, applying
// the solve deadline to the assignment stage only.
func (s *Service) assignLabels(ctx context.Context, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}

	opts := []assign.Option{
		assign.WithLogger(s.logger.Named("assign")),
	}
	if s.solver != nil {
		opts = append(opts, assign.WithSolver(s.solver))
	}
	if s.minClusterSize > 0 {
		opts = append(opts, assign.WithMinClusterSize(s.minClusterSize))
	}
	assigner := assign.New(opts...)

	solveCtx := ctx
	if s.solveTimeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, s.solveTimeout)
		defer cancel()
	}

	switch s.mode {
	case ModeArchetypes:
		return assigner.Assign(solveCtx, records, s.registry)
	case ModeSplit:
		profiles := s.registry.Profiles()
		if len(profiles) != 1 {
			return fmt.Errorf("%w: got %d", ErrSplitRegistry, len(profiles))
		}
		return assigner.Split(solveCtx, records, profiles[0], s.readyLabel, s.notReadyLabel, s.minReady)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, s.mode)
	}
}
