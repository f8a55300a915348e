package transcribe

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/infopt/internal/domain"
	"github.com/san-kum/infopt/internal/model"
)

func decayProblem() *model.Problem {
	xi := domain.Uniform("xi", 0.5, 1.5)
	t0 := 0.0
	return &model.Problem{
		Name:        "decay",
		Time:        domain.Interval("t", 0, 10),
		Uncertainty: &xi,
		Grid:        domain.GridSpec{Points: 6, Nodes: 2},
		Samples:     domain.SampleSpec{Samples: 4, Seed: 1},
		Variables: []model.Variable{
			{ID: "z", Domains: []string{"t", "xi"}, Lower: 0, Upper: math.Inf(1),
				Guess: func(map[string]float64) float64 { return 1 }},
			{ID: "u", Domains: []string{"t"}, Lower: 0, Upper: 1},
		},
		Constraints: []model.Constraint{
			{
				Name: "decay_ode", Kind: model.Equal, Over: []string{"t", "xi"},
				Expr: func(ctx model.EvalContext) float64 {
					return ctx.Deriv("z") + ctx.Coord("xi")*ctx.Value("z") - ctx.Value("u")
				},
			},
			{
				Name: "init", Kind: model.Equal, Over: []string{"xi"}, PinTime: &t0,
				Expr: func(ctx model.EvalContext) float64 { return ctx.Value("z") - 1 },
			},
		},
		Objective: model.Objective{
			Expr: func(ctx model.EvalContext) float64 { return ctx.Value("u") },
		},
	}
}

func TestTranscribedVariableCounts(t *testing.T) {
	tr, err := Transcribe(decayProblem())
	if err != nil {
		t.Fatal(err)
	}

	nt, nk := tr.Time.Len(), tr.Xi.Len()
	if got := tr.Blocks["z"].Size(); got != nt*nk {
		t.Errorf("z instances: got %d, want %d", got, nt*nk)
	}
	if got := tr.Blocks["u"].Size(); got != nt {
		t.Errorf("u instances: got %d, want %d", got, nt)
	}
	if tr.N != nt*nk+nt {
		t.Errorf("decision vector size: got %d, want %d", tr.N, nt*nk+nt)
	}
}

func TestFlatIndexUniqueAndGapless(t *testing.T) {
	tr, err := Transcribe(decayProblem())
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]bool)
	for _, id := range tr.Order {
		b := tr.Blocks[id]
		for ti := 0; ti < b.NT; ti++ {
			for k := 0; k < b.NK; k++ {
				idx, err := tr.FlatIndex(id, ti, k)
				if err != nil {
					t.Fatal(err)
				}
				if seen[idx] {
					t.Fatalf("duplicate flat index %d for %s(%d,%d)", idx, id, ti, k)
				}
				seen[idx] = true
			}
		}
	}
	if len(seen) != tr.N {
		t.Errorf("index coverage %d does not match vector size %d", len(seen), tr.N)
	}
}

func TestInitialConditionPinnedPerSample(t *testing.T) {
	tr, err := Transcribe(decayProblem())
	if err != nil {
		t.Fatal(err)
	}

	var inits []Scalar
	for _, s := range tr.Equalities {
		if len(s.Deps) == 1 {
			inits = append(inits, s)
		}
	}
	if len(inits) != tr.Xi.Len() {
		t.Fatalf("expected %d pinned initial conditions, got %d", tr.Xi.Len(), len(inits))
	}

	x := make([]float64, tr.N)
	for k := 0; k < tr.Xi.Len(); k++ {
		idx, err := tr.FlatIndex("z", 0, k)
		if err != nil {
			t.Fatal(err)
		}
		x[idx] = 1
	}
	for _, s := range inits {
		if r := s.Eval(x); math.Abs(r) > 1e-12 {
			t.Errorf("%s: residual %g with exact initial values", s.Name, r)
		}
	}
}

func TestExpectationBudgetSplit(t *testing.T) {
	p := decayProblem()
	p.Budgets = []model.ExpectationBudget{{
		Name:   "cap",
		Budget: 0.5,
		Expr:   func(ctx model.EvalContext) float64 { return ctx.Value("z") - 0.2 },
	}}

	tr, err := Transcribe(p)
	if err != nil {
		t.Fatal(err)
	}

	y, ok := tr.Blocks["cap_excess"]
	if !ok {
		t.Fatal("budget split should add an excess variable")
	}
	if y.Size() != tr.Time.Len() {
		t.Errorf("excess variable should be time-indexed: %d instances, want %d",
			y.Size(), tr.Time.Len())
	}
	idx, _ := tr.FlatIndex("cap_excess", 0, 0)
	if tr.Lower[idx] != 0 {
		t.Errorf("excess variable should be non-negative, lower bound %g", tr.Lower[idx])
	}

	// One pointwise excess inequality per (t, xi) plus one budget.
	want := tr.Time.Len()*tr.Xi.Len() + 1
	if len(tr.Inequalities) != want {
		t.Errorf("inequalities: got %d, want %d", len(tr.Inequalities), want)
	}

	budget := tr.Inequalities[len(tr.Inequalities)-1]
	x := make([]float64, tr.N)
	for ti := 0; ti < tr.Time.Len(); ti++ {
		i, _ := tr.FlatIndex("cap_excess", ti, 0)
		x[i] = 0.05
	}
	// Integral of constant 0.05 over span 10 is 0.5, exactly at budget.
	if r := budget.Eval(x); math.Abs(r) > 1e-9 {
		t.Errorf("budget residual at exact budget should be 0, got %g", r)
	}
}

func TestObjectiveQuadrature(t *testing.T) {
	tr, err := Transcribe(decayProblem())
	if err != nil {
		t.Fatal(err)
	}

	x := make([]float64, tr.N)
	for ti := 0; ti < tr.Time.Len(); ti++ {
		i, _ := tr.FlatIndex("u", ti, 0)
		x[i] = 0.3
	}
	// Integral of constant 0.3 over [0, 10].
	if got := tr.Objective.Eval(x); math.Abs(got-3.0) > 1e-9 {
		t.Errorf("objective: got %g, want 3.0", got)
	}
}

func TestSingleSampleDegeneratesBudget(t *testing.T) {
	p := decayProblem()
	p.Samples.Samples = 1
	p.Budgets = []model.ExpectationBudget{{
		Name:   "cap",
		Budget: 0.5,
		Expr:   func(ctx model.EvalContext) float64 { return ctx.Value("z") - 0.2 },
	}}

	tr, err := Transcribe(p)
	if err != nil {
		t.Fatal(err)
	}
	// Pointwise excess collapses to a plain per-time inequality.
	want := tr.Time.Len() + 1
	if len(tr.Inequalities) != want {
		t.Errorf("inequalities with one sample: got %d, want %d", len(tr.Inequalities), want)
	}
}

func TestPinnedOffGrid(t *testing.T) {
	p := decayProblem()
	bad := 3.3
	p.Constraints[1].PinTime = &bad
	if _, err := Transcribe(p); !errors.Is(err, ErrPinnedOffGrid) {
		t.Errorf("expected ErrPinnedOffGrid, got %v", err)
	}
}

func TestUnquantifiedAccessRejected(t *testing.T) {
	p := decayProblem()
	p.Constraints = append(p.Constraints, model.Constraint{
		Name: "bad", Kind: model.Equal, Over: []string{"t"},
		// Reads the xi-indexed z without quantifying over xi.
		Expr: func(ctx model.EvalContext) float64 { return ctx.Value("z") },
	})
	if _, err := Transcribe(p); !errors.Is(err, ErrUnquantifiedAccess) {
		t.Errorf("expected ErrUnquantifiedAccess, got %v", err)
	}
}

func TestDerivativeUsesCollocationRow(t *testing.T) {
	tr, err := Transcribe(decayProblem())
	if err != nil {
		t.Fatal(err)
	}

	// z(t) = t for every sample makes dz/dt exactly 1 at every support.
	x := make([]float64, tr.N)
	for ti := 0; ti < tr.Time.Len(); ti++ {
		for k := 0; k < tr.Xi.Len(); k++ {
			i, _ := tr.FlatIndex("z", ti, k)
			x[i] = tr.Time.Values[ti]
		}
	}
	deriv := func(ti, k int) float64 {
		sum := 0.0
		for j := 0; j < tr.Time.Len(); j++ {
			i, _ := tr.FlatIndex("z", j, k)
			sum += tr.D.At(ti, j) * x[i]
		}
		return sum
	}
	for ti := 0; ti < tr.Time.Len(); ti++ {
		if got := deriv(ti, 0); math.Abs(got-1) > 1e-9 {
			t.Errorf("collocated derivative of z=t at row %d: got %g, want 1", ti, got)
		}
	}
}
