// Package milp defines a minimal binary integer program abstraction:
// variable creation, linear objective and constraint registration, and
// solve-with-result. Any conforming MILP backend can be substituted
// without touching distance or data-model code; the in-tree backend is
// an exact branch-and-bound over gonum's LP simplex.
package milp

import (
	"context"
	"fmt"
)

// Op identifies the relational operator of a linear constraint.
type Op int

const (
	// LE constrains the expression to be <= the right-hand side.
	LE Op = iota
	// GE constrains the expression to be >= the right-hand side.
	GE
	// EQ constrains the expression to equal the right-hand side.
	EQ
)

// Var is a handle to a binary decision variable.
type Var struct {
	idx int
}

// Index returns the variable's position in creation order, which is
// also its position in Solution.Values.
func (v Var) Index() int { return v.idx }

// Term is a coefficient applied to a variable inside a linear
// expression.
type Term struct {
	Var  Var
	Coef float64
}

type constraint struct {
	name  string
	op    Op
	rhs   float64
	terms []Term
}

// Model is a binary integer program: minimize a linear objective over
// {0,1} decision variables subject to linear constraints.
type Model struct {
	names []string
	obj   []float64
	cons  []constraint
}

// NewModel creates an empty minimization model.
func NewModel() *Model {
	return &Model{}
}

// AddBinary registers a new binary decision variable.
func (m *Model) AddBinary(name string) Var {
	v := Var{idx: len(m.names)}
	m.names = append(m.names, name)
	m.obj = append(m.obj, 0)
	return v
}

// NumVars returns the number of registered variables.
func (m *Model) NumVars() int {
	return len(m.names)
}

// VarName returns the name a variable was registered with.
func (m *Model) VarName(v Var) string {
	return m.names[v.idx]
}

// SetObjectiveCoef sets a variable's coefficient in the minimization
// objective.
func (m *Model) SetObjectiveCoef(v Var, coef float64) {
	m.obj[v.idx] = coef
}

// AddConstraint registers a linear constraint over previously created
// variables.
func (m *Model) AddConstraint(name string, op Op, rhs float64, terms ...Term) {
	m.cons = append(m.cons, constraint{name: name, op: op, rhs: rhs, terms: terms})
}

// Solution is the result of an exact solve. Values holds one value per
// variable in creation order; for a correct backend every value is
// integral up to the backend's tolerance.
type Solution struct {
	Objective float64
	Values    []float64
}

// Value returns the solved value of a variable.
func (s Solution) Value(v Var) float64 {
	return s.Values[v.idx]
}

// Solver solves a Model to global optimality or reports infeasibility.
type Solver interface {
	// Solve returns an optimal feasible assignment, ErrInfeasible when
	// no assignment satisfies the constraints, or another error when
	// the solving attempt itself broke. Honors ctx for cancellation.
	Solve(ctx context.Context, m *Model) (Solution, error)
}

func (m *Model) validate() error {
	if m.NumVars() == 0 {
		return fmt.Errorf("%w: no variables", ErrEmptyModel)
	}
	return nil
}
