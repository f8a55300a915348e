package solver

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/infopt/internal/nlp"
)

// AugLag solves constrained programs with an augmented-Lagrangian outer
// loop around L-BFGS inner solves. Equality constraints, inequality
// constraints, and simple bounds all enter the smooth inner objective;
// multipliers update between inner solves and the penalty grows whenever
// feasibility stalls.
type AugLag struct {
	opts Options
}

// NewAugLag builds the adapter with the given options; zero-valued
// fields fall back to defaults.
func NewAugLag(opts Options) *AugLag {
	def := DefaultOptions()
	if opts.MaxOuter <= 0 {
		opts.MaxOuter = def.MaxOuter
	}
	if opts.InnerIters <= 0 {
		opts.InnerIters = def.InnerIters
	}
	if opts.Tol <= 0 {
		opts.Tol = def.Tol
	}
	if opts.GradTol <= 0 {
		opts.GradTol = def.GradTol
	}
	if opts.Penalty0 <= 0 {
		opts.Penalty0 = def.Penalty0
	}
	if opts.PenaltyGrowth <= 1 {
		opts.PenaltyGrowth = def.PenaltyGrowth
	}
	if opts.MaxPenalty <= 0 {
		opts.MaxPenalty = def.MaxPenalty
	}
	return &AugLag{opts: opts}
}

type auglagState struct {
	p       *nlp.Problem
	lamEq   []float64
	lamIneq []float64
	lamLo   []float64
	lamHi   []float64
	rho     float64
}

// hinge is the smooth inequality term of the augmented Lagrangian:
// ((max(0, lam+rho*g))^2 - lam^2) / (2*rho).
func hinge(g, lam, rho float64) float64 {
	m := lam + rho*g
	if m < 0 {
		return -lam * lam / (2 * rho)
	}
	return (m*m - lam*lam) / (2 * rho)
}

func (s *auglagState) value(x []float64) float64 {
	v := s.p.Objective.Eval(x)
	for i, c := range s.p.EqCons {
		r := c.Eval(x)
		v += s.lamEq[i]*r + 0.5*s.rho*r*r
	}
	for i, c := range s.p.IneqCons {
		v += hinge(c.Eval(x), s.lamIneq[i], s.rho)
	}
	for i := range x {
		if !math.IsInf(s.p.Lower[i], -1) {
			v += hinge(s.p.Lower[i]-x[i], s.lamLo[i], s.rho)
		}
		if !math.IsInf(s.p.Upper[i], 1) {
			v += hinge(x[i]-s.p.Upper[i], s.lamHi[i], s.rho)
		}
	}
	return v
}

func (s *auglagState) gradient(dst, x []float64) {
	for i := range dst {
		dst[i] = 0
	}
	s.p.Objective.Grad(dst, x, 1)
	for i, c := range s.p.EqCons {
		coeff := s.lamEq[i] + s.rho*c.Eval(x)
		if coeff != 0 {
			c.Grad(dst, x, coeff)
		}
	}
	for i, c := range s.p.IneqCons {
		coeff := s.lamIneq[i] + s.rho*c.Eval(x)
		if coeff > 0 {
			c.Grad(dst, x, coeff)
		}
	}
	for i := range x {
		if !math.IsInf(s.p.Lower[i], -1) {
			if coeff := s.lamLo[i] + s.rho*(s.p.Lower[i]-x[i]); coeff > 0 {
				dst[i] -= coeff
			}
		}
		if !math.IsInf(s.p.Upper[i], 1) {
			if coeff := s.lamHi[i] + s.rho*(x[i]-s.p.Upper[i]); coeff > 0 {
				dst[i] += coeff
			}
		}
	}
}

func (s *auglagState) updateMultipliers(x []float64) {
	for i, c := range s.p.EqCons {
		s.lamEq[i] += s.rho * c.Eval(x)
	}
	for i, c := range s.p.IneqCons {
		s.lamIneq[i] = math.Max(0, s.lamIneq[i]+s.rho*c.Eval(x))
	}
	for i := range x {
		if !math.IsInf(s.p.Lower[i], -1) {
			s.lamLo[i] = math.Max(0, s.lamLo[i]+s.rho*(s.p.Lower[i]-x[i]))
		}
		if !math.IsInf(s.p.Upper[i], 1) {
			s.lamHi[i] = math.Max(0, s.lamHi[i]+s.rho*(x[i]-s.p.Upper[i]))
		}
	}
}

// Solve runs the outer loop. It always returns a Solution with the best
// iterate found; the error mirrors a fatal (numerical) status only.
func (a *AugLag) Solve(ctx context.Context, p *nlp.Problem) (*Solution, error) {
	start := time.Now()

	x := clampToBounds(append([]float64(nil), p.X0...), p.Lower, p.Upper)
	st := &auglagState{
		p:       p,
		lamEq:   make([]float64, len(p.EqCons)),
		lamIneq: make([]float64, len(p.IneqCons)),
		lamLo:   make([]float64, p.N),
		lamHi:   make([]float64, p.N),
		rho:     a.opts.Penalty0,
	}

	sol := &Solution{Status: StatusIterationLimit}
	prevViol := math.Inf(1)

	for outer := 1; outer <= a.opts.MaxOuter; outer++ {
		if ctx.Err() != nil {
			sol.Status = StatusInterrupted
			break
		}

		prob := optimize.Problem{Func: st.value, Grad: st.gradient}
		settings := &optimize.Settings{
			MajorIterations:   a.opts.InnerIters,
			GradientThreshold: a.opts.GradTol,
		}
		res, err := optimize.Minimize(prob, x, settings, &optimize.LBFGS{})
		if err != nil && res == nil {
			sol.Status = StatusNumerical
			break
		}
		if res != nil {
			x = res.X
		}

		if !allFinite(x) || math.IsNaN(st.value(x)) {
			sol.Status = StatusNumerical
			break
		}

		viol := p.MaxViolation(x)
		obj := p.Objective.Eval(x)
		sol.X = append(sol.X[:0], x...)
		sol.Objective = obj
		sol.MaxViolation = viol
		sol.OuterIters = outer

		if a.opts.OnProgress != nil {
			a.opts.OnProgress(Progress{
				Iter: outer, Objective: obj, Penalty: st.rho, MaxViolation: viol,
			})
		}

		if viol <= a.opts.Tol {
			sol.Status = StatusOptimal
			break
		}

		st.updateMultipliers(x)

		stalled := viol > 0.9*prevViol
		if stalled {
			st.rho = math.Min(st.rho*a.opts.PenaltyGrowth, a.opts.MaxPenalty)
		}
		if st.rho >= a.opts.MaxPenalty && stalled && viol > 100*a.opts.Tol {
			sol.Status = StatusInfeasible
			break
		}
		prevViol = math.Min(prevViol, viol)
	}

	if sol.X == nil {
		sol.X = append([]float64(nil), x...)
		sol.Objective = p.Objective.Eval(x)
		sol.MaxViolation = p.MaxViolation(x)
	}
	sol.Runtime = time.Since(start)

	if sol.Status == StatusNumerical {
		return sol, ErrNumerical
	}
	return sol, nil
}

func clampToBounds(x, lo, hi []float64) []float64 {
	for i := range x {
		if x[i] < lo[i] {
			x[i] = lo[i]
		}
		if x[i] > hi[i] {
			x[i] = hi[i]
		}
	}
	return x
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
