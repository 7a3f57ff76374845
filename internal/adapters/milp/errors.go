package milp

import "errors"

// Sentinel kinds for solver errors. ErrInfeasible means no variable
// assignment satisfies all constraints; everything else means the
// solving attempt itself broke.
var (
	ErrInfeasible  = errors.New("model infeasible")
	ErrSolveFailed = errors.New("lp relaxation failed")
	ErrNodeLimit   = errors.New("branch and bound node limit exceeded")
	ErrEmptyModel  = errors.New("empty model")
)
