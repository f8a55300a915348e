package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/infopt/internal/nlp"
)

func unbounded(n int) ([]float64, []float64) {
	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := range lo {
		lo[i] = math.Inf(-1)
		hi[i] = math.Inf(1)
	}
	return lo, hi
}

func TestEqualityConstrainedQuadratic(t *testing.T) {
	// min x^2 + y^2  s.t. x + y = 1  ->  (0.5, 0.5)
	lo, hi := unbounded(2)
	p := &nlp.Problem{
		N: 2, Lower: lo, Upper: hi,
		Objective: nlp.Func{
			Eval: func(x []float64) float64 { return x[0]*x[0] + x[1]*x[1] },
			Deps: []int{0, 1},
		},
		EqCons: []nlp.Func{{
			Name: "sum",
			Eval: func(x []float64) float64 { return x[0] + x[1] - 1 },
			Deps: []int{0, 1},
		}},
		X0: []float64{0, 0},
	}

	sol, err := NewAugLag(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 0.5, sol.X[0], 1e-4)
	assert.InDelta(t, 0.5, sol.X[1], 1e-4)
	assert.InDelta(t, 0.5, sol.Objective, 1e-4)
}

func TestActiveBoundAndInequality(t *testing.T) {
	// min (x-2)^2  s.t. x <= 1  ->  x = 1
	p := &nlp.Problem{
		N: 1, Lower: []float64{-10}, Upper: []float64{10},
		Objective: nlp.Func{
			Eval: func(x []float64) float64 { return (x[0] - 2) * (x[0] - 2) },
			Deps: []int{0},
		},
		IneqCons: []nlp.Func{{
			Name: "cap",
			Eval: func(x []float64) float64 { return x[0] - 1 },
			Deps: []int{0},
		}},
		X0: []float64{0},
	}

	sol, err := NewAugLag(Options{}).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1.0, sol.X[0], 1e-4)
}

func TestInfeasibleReported(t *testing.T) {
	// x in [0, 1] but x >= 2 required.
	p := &nlp.Problem{
		N: 1, Lower: []float64{0}, Upper: []float64{1},
		Objective: nlp.Func{
			Eval: func(x []float64) float64 { return x[0] },
			Deps: []int{0},
		},
		IneqCons: []nlp.Func{{
			Name: "impossible",
			Eval: func(x []float64) float64 { return 2 - x[0] },
			Deps: []int{0},
		}},
		X0: []float64{0.5},
	}

	sol, err := NewAugLag(Options{MaxOuter: 40}).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Greater(t, sol.MaxViolation, 0.1)
	assert.ErrorIs(t, StatusError(sol.Status), ErrInfeasible)
}

func TestInterruptedReturnsBestIterate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lo, hi := unbounded(1)
	p := &nlp.Problem{
		N: 1, Lower: lo, Upper: hi,
		Objective: nlp.Func{
			Eval: func(x []float64) float64 { return x[0] * x[0] },
			Deps: []int{0},
		},
		X0: []float64{3},
	}

	sol, err := NewAugLag(Options{}).Solve(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, StatusInterrupted, sol.Status)
	require.Len(t, sol.X, 1)
	assert.ErrorIs(t, StatusError(sol.Status), ErrInterrupted)
}

func TestProgressCallback(t *testing.T) {
	var iters []int
	opts := Options{OnProgress: func(p Progress) { iters = append(iters, p.Iter) }}

	lo, hi := unbounded(1)
	p := &nlp.Problem{
		N: 1, Lower: lo, Upper: hi,
		Objective: nlp.Func{
			Eval: func(x []float64) float64 { return (x[0] - 1) * (x[0] - 1) },
			Deps: []int{0},
		},
		X0: []float64{0},
	}

	sol, err := NewAugLag(opts).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	require.NotEmpty(t, iters)
	assert.Equal(t, 1, iters[0])
}

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		StatusOptimal:        "optimal",
		StatusInfeasible:     "infeasible",
		StatusIterationLimit: "iteration_limit",
		StatusNumerical:      "numerical_error",
		StatusInterrupted:    "interrupted",
		StatusUnknown:        "unknown",
	}
	for s, want := range cases {
		assert.Equal(t, want, s.String())
	}
}
