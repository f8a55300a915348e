// Package problems builds concrete infinite-dimensional control
// problems for the transcription pipeline.
package problems

import (
	"github.com/san-kum/infopt/internal/domain"
	"github.com/san-kum/infopt/internal/model"
)

// BuildSEIR poses epidemic mitigation over an SEIR compartment model
// with an uncertain incubation rate xi ~ U(XiMin, XiMax). The isolation
// control u(t) damps transmission; the objective minimizes total
// isolation effort while the time integral of infectious excess over
// IMax stays within Epsilon.
func BuildSEIR(p Params) (*model.Problem, error) {
	s0, e0, i0, r0 := p.S0, p.E0, p.I0, p.R0
	if !p.seeded() {
		e0 = 1 / p.Population
		s0 = 1 - e0
	}

	xi := domain.Uniform("xi", p.XiMin, p.XiMax)
	t0 := p.T0

	constGuess := func(v float64) func(map[string]float64) float64 {
		return func(map[string]float64) float64 { return v }
	}

	prob := &model.Problem{
		Name:        "seir",
		Time:        domain.Interval("t", p.T0, p.TF),
		Uncertainty: &xi,
		Grid:        domain.GridSpec{Points: p.Points, Nodes: p.Nodes, Extra: p.ExtraTs},
		Samples:     domain.SampleSpec{Samples: p.Samples, Seed: p.Seed},
		Variables: []model.Variable{
			{ID: "s", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(s0)},
			{ID: "e", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(e0)},
			{ID: "i", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(i0)},
			{ID: "r", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(r0)},
			{ID: "si", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(s0 * i0)},
			{ID: "u", Domains: []string{"t"}, Lower: p.UMin, Upper: p.UMax, Guess: constGuess(p.UMin)},
		},
		Constraints: []model.Constraint{
			{
				Name: "s_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("s") + (1-ctx.Value("u"))*p.Beta*ctx.Value("si")
				},
			},
			{
				Name: "e_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("e") - (1-ctx.Value("u"))*p.Beta*ctx.Value("si") +
						ctx.Coord("xi")*ctx.Value("e")
				},
			},
			{
				Name: "i_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("i") - ctx.Coord("xi")*ctx.Value("e") + p.Gamma*ctx.Value("i")
				},
			},
			{
				Name: "r_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("r") - p.Gamma*ctx.Value("i")
				},
			},
			{
				Name: "si_def", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Value("si") - ctx.Value("s")*ctx.Value("i")
				},
			},
			initial("s_init", "s", s0, &t0),
			initial("e_init", "e", e0, &t0),
			initial("i_init", "i", i0, &t0),
			initial("r_init", "r", r0, &t0),
		},
		Budgets: []model.ExpectationBudget{{
			Name:   "infection_cap",
			Budget: p.Epsilon,
			Expr: func(ctx model.EvalContext) float64 {
				return ctx.Value("i") - p.IMax
			},
		}},
		Objective: model.Objective{
			Expr: func(ctx model.EvalContext) float64 { return ctx.Value("u") },
		},
	}

	return prob, nil
}

func initial(name string, id model.VarID, value float64, t0 *float64) model.Constraint {
	return model.Constraint{
		Name: name, Kind: model.Equal, Over: []string{"xi"}, PinTime: t0,
		Expr: func(ctx model.EvalContext) float64 { return ctx.Value(id) - value },
	}
}
