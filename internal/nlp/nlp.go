// Package nlp holds the finite nonlinear program handed to a solver:
// a flat decision vector with bounds, a scalar objective, and equality
// and inequality constraint functions, each carrying gradient support.
package nlp

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
)

// Func is a scalar function of the decision vector. Deps, when non-nil,
// lists the only indices the function reads, enabling sparse
// finite-difference gradients.
type Func struct {
	Name string
	Eval func(x []float64) float64
	Deps []int
}

// fdStep is the central-difference step scale.
var fdStep = math.Cbrt(2.2e-16)

// Grad accumulates scale * ∇f(x) into dst. Functions with recorded
// dependencies only perturb those indices; dense functions fall back to
// a full finite-difference gradient.
func (f Func) Grad(dst []float64, x []float64, scale float64) {
	if f.Deps == nil {
		g := make([]float64, len(x))
		fd.Gradient(g, f.Eval, x, &fd.Settings{Formula: fd.Central})
		for i, gi := range g {
			dst[i] += scale * gi
		}
		return
	}
	for _, i := range f.Deps {
		h := fdStep * math.Max(1, math.Abs(x[i]))
		orig := x[i]
		x[i] = orig + h
		fp := f.Eval(x)
		x[i] = orig - h
		fm := f.Eval(x)
		x[i] = orig
		dst[i] += scale * (fp - fm) / (2 * h)
	}
}

// Problem is the assembled NLP: minimize Objective subject to
// EqCons(x) == 0, IneqCons(x) <= 0, and Lower <= x <= Upper.
type Problem struct {
	N int

	Lower []float64
	Upper []float64

	Objective Func
	EqCons    []Func
	IneqCons  []Func

	// X0 is the initial guess handed to the solver.
	X0 []float64
}

// MaxViolation returns the largest constraint or bound violation at x.
func (p *Problem) MaxViolation(x []float64) float64 {
	v := 0.0
	for _, c := range p.EqCons {
		v = math.Max(v, math.Abs(c.Eval(x)))
	}
	for _, c := range p.IneqCons {
		v = math.Max(v, c.Eval(x))
	}
	for i := range x {
		v = math.Max(v, p.Lower[i]-x[i])
		v = math.Max(v, x[i]-p.Upper[i])
	}
	return v
}
