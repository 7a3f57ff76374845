package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/okian/encore/pkg/metrics"
)

// Default solver tolerances.
const (
	// defaultIntegralityTol bounds how far a relaxation value may sit
	// from 0 or 1 and still count as integral.
	defaultIntegralityTol = 1e-6
	// boundTol guards pruning against floating-point noise in the
	// relaxation objective.
	boundTol = 1e-9
	// feasTol is the slack allowed when checking fully fixed rows.
	feasTol = 1e-9
)

// errRelaxInfeasible marks a node whose LP relaxation has no feasible
// point. It never escapes Solve.
var errRelaxInfeasible = errors.New("relaxation infeasible")

// BranchBoundOption applies a configuration option to the solver.
type BranchBoundOption func(*BranchBound)

// WithNodeLimit caps the number of branch-and-bound nodes explored.
// Zero means unlimited.
func WithNodeLimit(limit int) BranchBoundOption {
	return func(s *BranchBound) {
		if limit >= 0 {
			s.nodeLimit = limit
		}
	}
}

// WithIntegralityTol sets the tolerance for treating a relaxation value
// as integral.
func WithIntegralityTol(tol float64) BranchBoundOption {
	return func(s *BranchBound) {
		if tol > 0 {
			s.intTol = tol
		}
	}
}

// BranchBound is an exact Solver: it solves each node's LP relaxation
// with gonum's simplex, substitutes fixed binaries out of the model,
// branches on the most fractional variable, and prunes on bound and on
// infeasible relaxations. For a fixed model the search order is
// deterministic; which of several equally optimal assignments it
// returns is still an implementation detail.
type BranchBound struct {
	intTol    float64
	nodeLimit int
}

// NewBranchBound creates a solver with default tolerances.
func NewBranchBound(opts ...BranchBoundOption) *BranchBound {
	s := &BranchBound{
		intTol: defaultIntegralityTol,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Solve implements Solver.
func (s *BranchBound) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.validate(); err != nil {
		return Solution{}, err
	}

	n := m.NumVars()
	root := make([]int8, n)
	for i := range root {
		root[i] = -1 // free
	}

	stack := [][]int8{root}
	best := math.Inf(1)
	var bestX []float64
	nodes := 0

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return Solution{}, fmt.Errorf("solve canceled: %w", ctx.Err())
		default:
		}

		nodes++
		if s.nodeLimit > 0 && nodes > s.nodeLimit {
			return Solution{}, fmt.Errorf("%w: %d nodes", ErrNodeLimit, s.nodeLimit)
		}

		fixed := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, x, err := s.relax(m, fixed)
		if errors.Is(err, errRelaxInfeasible) {
			continue
		}
		if err != nil {
			return Solution{}, fmt.Errorf("%w: %v", ErrSolveFailed, err)
		}
		if obj >= best-boundTol {
			continue // bound: cannot improve the incumbent
		}

		branch := -1
		frac := s.intTol
		for i := 0; i < n; i++ {
			if f := math.Min(x[i], 1-x[i]); f > frac {
				frac = f
				branch = i
			}
		}

		if branch < 0 {
			// Integral solution, new incumbent.
			best = obj
			bestX = x
			continue
		}

		// Explore the x=1 child first: assignments tend to reach
		// integral incumbents faster that way.
		zero := append([]int8(nil), fixed...)
		zero[branch] = 0
		one := append([]int8(nil), fixed...)
		one[branch] = 1
		stack = append(stack, zero, one)
	}

	metrics.RecordBranchNodes(nodes)

	if bestX == nil {
		return Solution{}, ErrInfeasible
	}
	return Solution{Objective: best, Values: bestX}, nil
}

// relax solves the LP relaxation of m with the given variables fixed
// (-1 free, otherwise 0 or 1). Fixed variables are substituted out so
// the standard-form program stays full row rank. Returns the objective
// and a full-length x including the fixed values.
func (s *BranchBound) relax(m *Model, fixed []int8) (float64, []float64, error) {
	n := m.NumVars()

	colOf := make([]int, n)
	free := make([]int, 0, n)
	var constObj float64
	for i := 0; i < n; i++ {
		if fixed[i] >= 0 {
			colOf[i] = -1
			constObj += m.obj[i] * float64(fixed[i])
			continue
		}
		colOf[i] = len(free)
		free = append(free, i)
	}

	type row struct {
		terms map[int]float64
		op    Op
		rhs   float64
	}
	rows := make([]row, 0, len(m.cons))
	for _, con := range m.cons {
		rhs := con.rhs
		terms := make(map[int]float64)
		for _, t := range con.terms {
			if fixed[t.Var.idx] >= 0 {
				rhs -= t.Coef * float64(fixed[t.Var.idx])
				continue
			}
			terms[colOf[t.Var.idx]] += t.Coef
		}
		for col, coef := range terms {
			if coef == 0 {
				delete(terms, col)
			}
		}
		if len(terms) == 0 {
			// Fully fixed row: verify it directly.
			var ok bool
			switch con.op {
			case EQ:
				ok = math.Abs(rhs) <= feasTol
			case LE:
				ok = rhs >= -feasTol
			case GE:
				ok = rhs <= feasTol
			}
			if !ok {
				return 0, nil, errRelaxInfeasible
			}
			continue
		}
		rows = append(rows, row{terms: terms, op: con.op, rhs: rhs})
	}

	nFree := len(free)
	if nFree == 0 {
		x := make([]float64, n)
		for i := range x {
			x[i] = float64(fixed[i])
		}
		return constObj, x, nil
	}

	// Standard form: columns are the free binaries, one slack or
	// surplus per inequality row, then one upper-bound slack per free
	// binary for the x <= 1 rows.
	nSlack := 0
	for _, r := range rows {
		if r.op != EQ {
			nSlack++
		}
	}
	ncols := nFree + nSlack + nFree
	nrows := len(rows) + nFree

	A := mat.NewDense(nrows, ncols, nil)
	b := make([]float64, nrows)
	c := make([]float64, ncols)
	for j, vi := range free {
		c[j] = m.obj[vi]
	}

	slack := nFree
	for ri, r := range rows {
		for col, coef := range r.terms {
			A.Set(ri, col, coef)
		}
		b[ri] = r.rhs
		switch r.op {
		case LE:
			A.Set(ri, slack, 1)
			slack++
		case GE:
			A.Set(ri, slack, -1)
			slack++
		case EQ:
		}
	}

	ubBase := nFree + nSlack
	for j := 0; j < nFree; j++ {
		ri := len(rows) + j
		A.Set(ri, j, 1)
		A.Set(ri, ubBase+j, 1)
		b[ri] = 1
	}

	optF, optX, err := lp.Simplex(c, A, b, 0, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return 0, nil, errRelaxInfeasible
		}
		return 0, nil, err
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		if fixed[i] >= 0 {
			x[i] = float64(fixed[i])
			continue
		}
		x[i] = optX[colOf[i]]
	}
	return constObj + optF, x, nil
}
