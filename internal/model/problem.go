package model

import (
	"fmt"
	"math"

	"github.com/san-kum/infopt/internal/domain"
)

// VarID names an infinite variable within a problem.
type VarID string

// Variable is a decision function indexed by a subset of the problem's
// domains. A variable over {time} gets one scalar instance per time
// support; one over {time, uncertainty} gets the full cross product.
type Variable struct {
	ID      VarID
	Domains []string
	Lower   float64
	Upper   float64
	// Guess provides an initial value at given domain coordinates.
	// Optional; the solver falls back to bound midpoints.
	Guess func(coords map[string]float64) float64
}

// Free marks an unbounded side of a variable.
func Free() (lower, upper float64) {
	return math.Inf(-1), math.Inf(1)
}

// Kind of a scalar constraint relation.
type Kind int

const (
	// Equal requires the residual to vanish.
	Equal Kind = iota
	// LessEq requires the residual to be non-positive.
	LessEq
)

func (k Kind) String() string {
	if k == Equal {
		return "=="
	}
	return "<="
}

// EvalContext is how a constraint expression reads the problem state at
// the current support tuple during transcription.
type EvalContext interface {
	// Value returns the variable's value at the current supports.
	Value(id VarID) float64
	// Deriv returns the collocated time derivative of the variable.
	Deriv(id VarID) float64
	// Coord returns the current support value of a domain.
	Coord(dom string) float64
}

// Expr is a residual over the current support tuple.
type Expr func(ctx EvalContext) float64

// Constraint is quantified over the domains in Over and expands into one
// scalar constraint per support tuple. A non-nil PinTime fixes the time
// coordinate instead of quantifying over it; the pinned value must be a
// grid support.
type Constraint struct {
	Name    string
	Kind    Kind
	Over    []string
	PinTime *float64
	Expr    Expr
}

// IntegralConstraint bounds a time integral: sum over the time grid of
// w_t * Expr(t, .) must not exceed Bound. Quantified over the non-time
// domains in Over (one scalar constraint per tuple of those supports).
type IntegralConstraint struct {
	Name  string
	Over  []string
	Expr  Expr
	Bound float64
}

// ExpectationBudget bounds the time-averaged positive excess of Expr.
// The transcriber splits it into an auxiliary non-negative time-indexed
// variable, a pointwise excess inequality, and one integral budget.
type ExpectationBudget struct {
	Name   string
	Expr   Expr
	Budget float64
}

// Objective is a single integral over time, transcribed with the grid's
// quadrature weights.
type Objective struct {
	Expr Expr
}

// Problem is the full infinite-dimensional program definition. Built by
// a problem constructor, consumed read-only by the transcriber.
type Problem struct {
	Name string

	Time        domain.Domain
	Uncertainty *domain.Domain

	Grid    domain.GridSpec
	Samples domain.SampleSpec

	Variables   []Variable
	Constraints []Constraint
	Integrals   []IntegralConstraint
	Budgets     []ExpectationBudget
	Objective   Objective
}

// Variable looks up a variable definition by ID.
func (p *Problem) Variable(id VarID) (*Variable, error) {
	for i := range p.Variables {
		if p.Variables[i].ID == id {
			return &p.Variables[i], nil
		}
	}
	return nil, fmt.Errorf("model: unknown variable %q in problem %q", id, p.Name)
}

// DomainNames returns the names of all registered domains, time first.
func (p *Problem) DomainNames() []string {
	names := []string{p.Time.Name}
	if p.Uncertainty != nil {
		names = append(names, p.Uncertainty.Name)
	}
	return names
}
