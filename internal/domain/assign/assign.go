// Package assign formulates record-to-cluster assignment as a binary
// integer program and extracts cluster labels from the solution.
package assign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/encore/internal/adapters/milp"
	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/profile"
	"github.com/okian/encore/pkg/logger"
	"github.com/okian/encore/pkg/metrics"
)

// threshold declares a binary variable active. Exact binary solves
// return values at 0 or 1, so the midpoint is a safe cut.
const threshold = 0.5

// Assigner builds and solves the assignment program.
type Assigner struct {
	solver milp.Solver
	logger logger.Logger

	// minSizeOverride replaces the derived max(1, N/K) floor when > 0.
	minSizeOverride int
}

// Option applies a configuration option to the Assigner.
type Option func(*Assigner)

// WithSolver sets the MILP backend.
func WithSolver(s milp.Solver) Option {
	return func(a *Assigner) {
		if s != nil {
			a.solver = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Assigner) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMinClusterSize overrides the derived per-cluster floor.
func WithMinClusterSize(size int) Option {
	return func(a *Assigner) {
		if size > 0 {
			a.minSizeOverride = size
		}
	}
}

// New creates an Assigner. The default backend is the in-tree
// branch-and-bound solver.
func New(opts ...Option) *Assigner {
	a := &Assigner{
		solver: milp.NewBranchBound(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logger.Get().Named("assign")
	}

	return a
}

// MinClusterSize returns the per-cluster occupancy floor for a dataset:
// max(1, records/clusters) unless overridden. Up to K-1 records can end
// up unconstrained by any floor; that slack is part of the formulation.
func (a *Assigner) MinClusterSize(records, clusters int) int {
	if a.minSizeOverride > 0 {
		return a.minSizeOverride
	}
	if min := records / clusters; min > 1 {
		return min
	}
	return 1
}

// Assign gives every record exactly one cluster label drawn from the
// registry, minimizing total normalized distance plus per-cluster
// penalties, subject to every cluster receiving at least its floor
// share of records. Records must already carry normalized distances.
//
// Returns ErrModelInfeasible when no assignment can satisfy the floors
// (for example when clusters*floor exceeds the record count) and
// ErrSolverFailure when the backend itself breaks or times out.
func (a *Assigner) Assign(ctx context.Context, records []*model.Record, registry *profile.Registry) error {
	profiles := registry.Profiles()
	n := len(records)
	k := len(profiles)
	if n == 0 {
		return nil
	}

	minSize := a.MinClusterSize(n, k)

	m := milp.NewModel()
	vars := make([][]milp.Var, n)
	for i, rec := range records {
		vars[i] = make([]milp.Var, k)
		rowTerms := make([]milp.Term, k)
		for j, p := range profiles {
			v := m.AddBinary(fmt.Sprintf("x_%d_%d", i, j))
			m.SetObjectiveCoef(v, rec.Distance(p.Name)+p.Penalty)
			vars[i][j] = v
			rowTerms[j] = milp.Term{Var: v, Coef: 1}
		}
		// Exactly one cluster per record.
		m.AddConstraint(fmt.Sprintf("record_%d", i), milp.EQ, 1, rowTerms...)
	}
	for j, p := range profiles {
		terms := make([]milp.Term, n)
		for i := range records {
			terms[i] = milp.Term{Var: vars[i][j], Coef: 1}
		}
		// Occupancy floor keeps the optimizer from dumping everything
		// into the cheapest cluster.
		m.AddConstraint("min_"+p.Name, milp.GE, float64(minSize), terms...)
	}

	a.logger.Debug(ctx, "solving assignment model",
		logger.Int("records", n),
		logger.Int("clusters", k),
		logger.Int("minClusterSize", minSize),
	)

	sol, err := a.solve(ctx, m)
	if err != nil {
		return err
	}

	for i, rec := range records {
		assigned := false
		for j, p := range profiles {
			if sol.Value(vars[i][j]) > threshold {
				rec.Cluster = p.Name
				assigned = true
				break
			}
		}
		if !assigned {
			// The exactly-one row makes this unreachable for a correct
			// backend; reaching it means the formulation broke.
			return fmt.Errorf("%w: record %d", ErrNoAssignment, i)
		}
	}

	for _, p := range profiles {
		count := 0
		for _, rec := range records {
			if rec.Cluster == p.Name {
				count++
			}
		}
		metrics.UpdateClusterSize(p.Name, count)
	}

	return nil
}

// Split labels from the single-profile program: minimize the total
// distance of the records placed in the named cluster, subject to at
// least minReady of them being placed there. Everything else receives
// the complement label. Records must carry a distance for the profile.
func (a *Assigner) Split(ctx context.Context, records []*model.Record, p profile.Profile, readyLabel, notReadyLabel string, minReady int) error {
	n := len(records)
	if n == 0 {
		return nil
	}

	m := milp.NewModel()
	vars := make([]milp.Var, n)
	floor := make([]milp.Term, n)
	for i, rec := range records {
		v := m.AddBinary(fmt.Sprintf("x_%d", i))
		m.SetObjectiveCoef(v, rec.Distance(p.Name))
		vars[i] = v
		floor[i] = milp.Term{Var: v, Coef: 1}
	}
	// Single global floor; the complement absorbs the rest implicitly.
	m.AddConstraint("min_ready", milp.GE, float64(minReady), floor...)

	a.logger.Debug(ctx, "solving split model",
		logger.Int("records", n),
		logger.Int("minReady", minReady),
	)

	sol, err := a.solve(ctx, m)
	if err != nil {
		return err
	}

	for i, rec := range records {
		if sol.Value(vars[i]) > threshold {
			rec.Cluster = readyLabel
			continue
		}
		rec.Cluster = notReadyLabel
	}

	ready := 0
	for _, rec := range records {
		if rec.Cluster == readyLabel {
			ready++
		}
	}
	metrics.UpdateClusterSize(readyLabel, ready)
	metrics.UpdateClusterSize(notReadyLabel, n-ready)

	return nil
}

// solve runs the backend and maps its error taxonomy onto ours.
func (a *Assigner) solve(ctx context.Context, m *milp.Model) (milp.Solution, error) {
	metrics.RecordSolveAttempt()
	start := time.Now()
	sol, err := a.solver.Solve(ctx, m)
	metrics.RecordSolveDuration(float64(time.Since(start).Milliseconds()))

	switch {
	case err == nil:
		return sol, nil
	case errors.Is(err, milp.ErrInfeasible):
		metrics.RecordInfeasible()
		return milp.Solution{}, fmt.Errorf("%w: %v", ErrModelInfeasible, err)
	default:
		metrics.RecordSolverError()
		a.logger.Error(ctx, "solver failed", logger.Error(err))
		return milp.Solution{}, fmt.Errorf("%w: %v", ErrSolverFailure, err)
	}
}
