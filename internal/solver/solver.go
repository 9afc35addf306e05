package solver

import (
	"context"
)

// Status is the outcome of a solve attempt.
type Status int

const (
	// StatusOptimal means an optimal solution was found.
	StatusOptimal Status = iota
	// StatusInfeasible means the constraints admit no feasible point.
	StatusInfeasible
	// StatusUnbounded means the objective is unbounded over the feasible region.
	StatusUnbounded
	// StatusTimeout means the solve did not complete within its deadline.
	StatusTimeout
	// StatusError means the backend failed for another reason.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusTimeout:
		return "timeout"
	default:
		return "error"
	}
}

// Result holds the outcome of one solver invocation.
type Result struct {
	Status    Status
	Objective float64
	Values    map[string]float64
}

// Value returns the solved value of a variable, or zero if it is absent.
func (r *Result) Value(name string) float64 {
	if r == nil {
		return 0
	}
	return r.Values[name]
}

// Solver solves a linear program. Implementations are blocking; the context
// bounds the solve and a non-optimal Status is reported through the Result
// rather than the error. A non-nil error means the model itself could not be
// handed to the backend.
type Solver interface {
	Solve(ctx context.Context, model *Model) (*Result, error)
}
