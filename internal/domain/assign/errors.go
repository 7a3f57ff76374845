package assign

import "errors"

// Sentinel kinds for assignment errors. Callers can tell "no valid
// clustering exists" (ErrModelInfeasible) apart from "the solving
// attempt itself broke" (ErrSolverFailure). ErrNoAssignment marks a
// model-formulation defect, not a data defect.
var (
	ErrModelInfeasible = errors.New("no assignment satisfies the constraints")
	ErrSolverFailure   = errors.New("solver failed")
	ErrNoAssignment    = errors.New("record received no cluster")
)
