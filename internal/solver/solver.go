// Package solver delegates the assembled nonlinear program to an
// external optimization method behind a small adapter interface, the
// same shape used for wrapping third-party optimizers elsewhere: all
// method-specific mechanics stay inside the adapter.
package solver

import (
	"context"
	"time"

	"github.com/san-kum/infopt/internal/nlp"
)

// Status classifies the outcome of a solve attempt.
type Status int

const (
	StatusUnknown Status = iota
	// StatusOptimal means feasibility and stationarity tolerances were met.
	StatusOptimal
	// StatusInfeasible means no feasible point was found despite maximal
	// constraint pressure.
	StatusInfeasible
	// StatusIterationLimit means the iteration budget ran out; the best
	// iterate is still reported.
	StatusIterationLimit
	// StatusNumerical means the solve broke down (NaN/Inf iterates).
	StatusNumerical
	// StatusInterrupted means the context was canceled mid-solve.
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusIterationLimit:
		return "iteration_limit"
	case StatusNumerical:
		return "numerical_error"
	case StatusInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Solution is the primal outcome of a solve attempt. X is always the
// best iterate found, whatever the status.
type Solution struct {
	X            []float64
	Objective    float64
	MaxViolation float64
	Status       Status
	OuterIters   int
	Runtime      time.Duration
}

// Progress reports one outer iteration to an observer.
type Progress struct {
	Iter         int
	Objective    float64
	Penalty      float64
	MaxViolation float64
}

// Options tune the adapter.
type Options struct {
	MaxOuter      int
	InnerIters    int
	Tol           float64
	GradTol       float64
	Penalty0      float64
	PenaltyGrowth float64
	MaxPenalty    float64
	OnProgress    func(Progress)
}

// DefaultOptions returns the adapter defaults.
func DefaultOptions() Options {
	return Options{
		MaxOuter:      30,
		InnerIters:    200,
		Tol:           1e-6,
		GradTol:       1e-6,
		Penalty0:      10,
		PenaltyGrowth: 10,
		MaxPenalty:    1e8,
	}
}

// Solver solves an assembled program. Implementations must honor
// context cancellation by returning the best iterate with
// StatusInterrupted rather than failing.
type Solver interface {
	Solve(ctx context.Context, p *nlp.Problem) (*Solution, error)
}
