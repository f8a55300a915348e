package problems

import (
	"github.com/san-kum/infopt/internal/domain"
	"github.com/san-kum/infopt/internal/model"
)

// BuildSIR is the reduced variant without an exposed compartment. Here
// xi scales the transmission rate directly, and the bilinear s*i term
// appears inline instead of through an auxiliary product variable.
func BuildSIR(p Params) (*model.Problem, error) {
	s0, i0, r0 := p.S0, p.I0, p.R0
	if !p.seeded() {
		i0 = 1 / p.Population
		s0 = 1 - i0
	}

	xi := domain.Uniform("xi", p.XiMin, p.XiMax)
	t0 := p.T0

	constGuess := func(v float64) func(map[string]float64) float64 {
		return func(map[string]float64) float64 { return v }
	}

	prob := &model.Problem{
		Name:        "sir",
		Time:        domain.Interval("t", p.T0, p.TF),
		Uncertainty: &xi,
		Grid:        domain.GridSpec{Points: p.Points, Nodes: p.Nodes, Extra: p.ExtraTs},
		Samples:     domain.SampleSpec{Samples: p.Samples, Seed: p.Seed},
		Variables: []model.Variable{
			{ID: "s", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(s0)},
			{ID: "i", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(i0)},
			{ID: "r", Domains: []string{"t", "xi"}, Lower: 0, Upper: 1, Guess: constGuess(r0)},
			{ID: "u", Domains: []string{"t"}, Lower: p.UMin, Upper: p.UMax, Guess: constGuess(p.UMin)},
		},
		Constraints: []model.Constraint{
			{
				Name: "s_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("s") +
						(1-ctx.Value("u"))*p.Beta*ctx.Coord("xi")*ctx.Value("s")*ctx.Value("i")
				},
			},
			{
				Name: "i_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("i") -
						(1-ctx.Value("u"))*p.Beta*ctx.Coord("xi")*ctx.Value("s")*ctx.Value("i") +
						p.Gamma*ctx.Value("i")
				},
			},
			{
				Name: "r_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("r") - p.Gamma*ctx.Value("i")
				},
			},
			initial("s_init", "s", s0, &t0),
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
