package transcribe

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/infopt/internal/domain"
	"github.com/san-kum/infopt/internal/model"
)

// Block is the contiguous slice of the decision vector holding one
// variable's transcribed instances, laid out time-major.
type Block struct {
	ID      model.VarID
	Offset  int
	HasTime bool
	HasXi   bool
	NT, NK  int
}

// Size returns the number of scalar instances in the block.
func (b *Block) Size() int { return b.NT * b.NK }

func (b *Block) index(ti, k int) int {
	i := b.Offset
	if b.HasTime {
		i += ti * b.NK
	}
	if b.HasXi {
		i += k
	}
	return i
}

// Scalar is one transcribed constraint (or the objective) as a function
// of the flat decision vector. Deps lists the decision indices the
// function reads, recorded by a probe evaluation.
type Scalar struct {
	Name string
	Eval func(x []float64) float64
	Deps []int
}

// Transcription is the finite expansion of a problem over its support
// sets: variable blocks, bounds, initial guess, and scalar constraints.
// Built once, consumed read-only by the NLP assembler.
type Transcription struct {
	Problem *model.Problem

	Time *domain.SupportSet
	Xi   *domain.SupportSet

	D *mat.Dense

	Blocks map[model.VarID]*Block
	Order  []model.VarID

	N     int
	Lower []float64
	Upper []float64
	Guess []float64

	Objective    Scalar
	Equalities   []Scalar
	Inequalities []Scalar
}

// FlatIndex returns the decision-vector position of a variable instance.
func (tr *Transcription) FlatIndex(id model.VarID, ti, k int) (int, error) {
	b, ok := tr.Blocks[id]
	if !ok {
		return 0, fmt.Errorf("transcribe: no block for variable %q", id)
	}
	if (b.HasTime && (ti < 0 || ti >= b.NT)) || (b.HasXi && (k < 0 || k >= b.NK)) {
		return 0, fmt.Errorf("transcribe: support index (%d,%d) out of range for %q", ti, k, id)
	}
	return b.index(ti, k), nil
}

// Transcribe expands the problem into a finite program. Support
// generation runs first so configuration errors surface before any
// expansion work.
func Transcribe(p *model.Problem) (*Transcription, error) {
	ts, err := p.Time.Grid(p.Grid)
	if err != nil {
		return nil, err
	}

	var xis *domain.SupportSet
	if p.Uncertainty != nil {
		xis, err = p.Uncertainty.Sample(p.Samples)
		if err != nil {
			return nil, err
		}
	}

	tr := &Transcription{
		Problem: p,
		Time:    ts,
		Xi:      xis,
		Blocks:  make(map[model.VarID]*Block),
	}

	vars, cons, ints := tr.splitBudgets()

	if err := tr.layout(vars); err != nil {
		return nil, err
	}
	tr.D = DiffMatrix(ts.Values, p.Grid.Nodes)

	for _, c := range cons {
		scalars, err := tr.expand(c)
		if err != nil {
			return nil, err
		}
		switch c.Kind {
		case model.Equal:
			tr.Equalities = append(tr.Equalities, scalars...)
		default:
			tr.Inequalities = append(tr.Inequalities, scalars...)
		}
	}

	for _, ic := range ints {
		scalars, err := tr.expandIntegral(ic)
		if err != nil {
			return nil, err
		}
		tr.Inequalities = append(tr.Inequalities, scalars...)
	}

	obj, err := tr.buildObjective(p.Objective)
	if err != nil {
		return nil, err
	}
	tr.Objective = obj

	return tr, nil
}

// splitBudgets rewrites each expectation budget into an auxiliary
// non-negative time-indexed excess variable, a pointwise excess
// inequality over the full support cross product, and a single integral
// budget on the excess. The per-sample budget copies collapse to one
// because the excess depends on time only.
func (tr *Transcription) splitBudgets() ([]model.Variable, []model.Constraint, []model.IntegralConstraint) {
	p := tr.Problem

	vars := append([]model.Variable(nil), p.Variables...)
	cons := append([]model.Constraint(nil), p.Constraints...)
	ints := append([]model.IntegralConstraint(nil), p.Integrals...)

	for _, b := range p.Budgets {
		b := b
		yID := model.VarID(b.Name + "_excess")

		vars = append(vars, model.Variable{
			ID:      yID,
			Domains: []string{p.Time.Name},
			Lower:   0,
			Upper:   math.Inf(1),
			Guess:   func(map[string]float64) float64 { return 0 },
		})

		over := []string{p.Time.Name}
		if p.Uncertainty != nil {
			over = append(over, p.Uncertainty.Name)
		}
		cons = append(cons, model.Constraint{
			Name: b.Name + "_excess",
			Kind: model.LessEq,
			Over: over,
			Expr: func(ctx model.EvalContext) float64 {
				return b.Expr(ctx) - ctx.Value(yID)
			},
		})

		ints = append(ints, model.IntegralConstraint{
			Name:  b.Name + "_budget",
			Expr:  func(ctx model.EvalContext) float64 { return ctx.Value(yID) },
			Bound: b.Budget,
		})
	}

	return vars, cons, ints
}

func (tr *Transcription) layout(vars []model.Variable) error {
	p := tr.Problem
	offset := 0

	for i := range vars {
		v := vars[i]
		if _, dup := tr.Blocks[v.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateVariable, v.ID)
		}

		b := &Block{ID: v.ID, Offset: offset, NT: 1, NK: 1}
		for _, d := range v.Domains {
			switch {
			case d == p.Time.Name:
				b.HasTime = true
				b.NT = tr.Time.Len()
			case p.Uncertainty != nil && d == p.Uncertainty.Name:
				b.HasXi = true
				b.NK = tr.Xi.Len()
			default:
				return fmt.Errorf("%w: %q on variable %q", ErrUnknownDomain, d, v.ID)
			}
		}

		tr.Blocks[v.ID] = b
		tr.Order = append(tr.Order, v.ID)
		offset += b.Size()

		for ti := 0; ti < b.NT; ti++ {
			for k := 0; k < b.NK; k++ {
				tr.Lower = append(tr.Lower, v.Lower)
				tr.Upper = append(tr.Upper, v.Upper)
				tr.Guess = append(tr.Guess, tr.guessValue(v, b, ti, k))
			}
		}
	}

	tr.N = offset
	return nil
}

func (tr *Transcription) guessValue(v model.Variable, b *Block, ti, k int) float64 {
	if v.Guess != nil {
		coords := make(map[string]float64, 2)
		if b.HasTime {
			coords[tr.Problem.Time.Name] = tr.Time.Values[ti]
		}
		if b.HasXi {
			coords[tr.Problem.Uncertainty.Name] = tr.Xi.Values[k]
		}
		return v.Guess(coords)
	}
	lo, hi := v.Lower, v.Upper
	switch {
	case !math.IsInf(lo, -1) && !math.IsInf(hi, 1):
		return (lo + hi) / 2
	case !math.IsInf(lo, -1):
		return lo
	case !math.IsInf(hi, 1):
		return hi
	default:
		return 0
	}
}

// evalCtx implements model.EvalContext over the flat decision vector at a
// fixed support tuple. With deps non-nil it records accessed indices and
// quantifier violations instead of failing hard.
type evalCtx struct {
	tr        *Transcription
	x         []float64
	ti, k     int
	allowTime bool
	allowXi   bool
	deps      map[int]struct{}
	err       error
}

func (c *evalCtx) access(idx int) float64 {
	if c.deps != nil {
		c.deps[idx] = struct{}{}
	}
	return c.x[idx]
}

func (c *evalCtx) block(id model.VarID) *Block {
	b, ok := c.tr.Blocks[id]
	if !ok {
		if c.err == nil {
			c.err = fmt.Errorf("transcribe: expression reads unknown variable %q", id)
		}
		return nil
	}
	if (b.HasTime && !c.allowTime) || (b.HasXi && !c.allowXi) {
		if c.err == nil {
			c.err = fmt.Errorf("%w: variable %q", ErrUnquantifiedAccess, id)
		}
		return nil
	}
	return b
}

func (c *evalCtx) Value(id model.VarID) float64 {
	b := c.block(id)
	if b == nil {
		return 0
	}
	return c.access(b.index(c.ti, c.k))
}

func (c *evalCtx) Deriv(id model.VarID) float64 {
	b := c.block(id)
	if b == nil || !b.HasTime {
		if b != nil && c.err == nil {
			c.err = fmt.Errorf("transcribe: derivative of time-free variable %q", id)
		}
		return 0
	}
	sum := 0.0
	for j := 0; j < b.NT; j++ {
		d := c.tr.D.At(c.ti, j)
		if d == 0 {
			continue
		}
		sum += d * c.access(b.index(j, c.k))
	}
	return sum
}

func (c *evalCtx) Coord(dom string) float64 {
	switch {
	case dom == c.tr.Problem.Time.Name:
		return c.tr.Time.Values[c.ti]
	case c.tr.Xi != nil && dom == c.tr.Problem.Uncertainty.Name:
		return c.tr.Xi.Values[c.k]
	default:
		if c.err == nil {
			c.err = fmt.Errorf("%w: coordinate %q", ErrUnknownDomain, dom)
		}
		return 0
	}
}

func (tr *Transcription) quantifiers(over []string) (overTime, overXi bool, err error) {
	for _, d := range over {
		switch {
		case d == tr.Problem.Time.Name:
			overTime = true
		case tr.Xi != nil && d == tr.Problem.Uncertainty.Name:
			overXi = true
		default:
			return false, false, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
		}
	}
	return overTime, overXi, nil
}

// probe runs an expression once with a recording context to collect its
// decision-vector dependencies and catch quantifier violations.
func (tr *Transcription) probe(name string, expr model.Expr, ti, k int, allowTime, allowXi bool) ([]int, error) {
	ctx := &evalCtx{
		tr: tr, x: tr.Guess, ti: ti, k: k,
		allowTime: allowTime, allowXi: allowXi,
		deps: make(map[int]struct{}),
	}
	expr(ctx)
	if ctx.err != nil {
		return nil, fmt.Errorf("%s: %w", name, ctx.err)
	}
	deps := make([]int, 0, len(ctx.deps))
	for i := range ctx.deps {
		deps = append(deps, i)
	}
	sort.Ints(deps)
	return deps, nil
}

func (tr *Transcription) expand(c model.Constraint) ([]Scalar, error) {
	overTime, overXi, err := tr.quantifiers(c.Over)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}

	tis := []int{0}
	allowTime := overTime
	switch {
	case overTime:
		tis = seq(tr.Time.Len())
	case c.PinTime != nil:
		pin := tr.Time.IndexOf(*c.PinTime)
		if pin < 0 {
			return nil, fmt.Errorf("%s: %w: t=%g", c.Name, ErrPinnedOffGrid, *c.PinTime)
		}
		tis = []int{pin}
		allowTime = true
	}

	ks := []int{0}
	if overXi {
		ks = seq(tr.Xi.Len())
	}

	scalars := make([]Scalar, 0, len(tis)*len(ks))
	for _, ti := range tis {
		for _, k := range ks {
			deps, err := tr.probe(c.Name, c.Expr, ti, k, allowTime, overXi)
			if err != nil {
				return nil, err
			}
			ti, k := ti, k
			expr := c.Expr
			scalars = append(scalars, Scalar{
				Name: scalarName(c.Name, overTime || c.PinTime != nil, overXi, ti, k),
				Deps: deps,
				Eval: func(x []float64) float64 {
					return expr(&evalCtx{tr: tr, x: x, ti: ti, k: k, allowTime: allowTime, allowXi: overXi})
				},
			})
		}
	}
	return scalars, nil
}

func (tr *Transcription) expandIntegral(ic model.IntegralConstraint) ([]Scalar, error) {
	_, overXi, err := tr.quantifiers(ic.Over)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ic.Name, err)
	}

	ks := []int{0}
	if overXi {
		ks = seq(tr.Xi.Len())
	}

	scalars := make([]Scalar, 0, len(ks))
	for _, k := range ks {
		depSet := make(map[int]struct{})
		for ti := 0; ti < tr.Time.Len(); ti++ {
			deps, err := tr.probe(ic.Name, ic.Expr, ti, k, true, overXi)
			if err != nil {
				return nil, err
			}
			for _, d := range deps {
				depSet[d] = struct{}{}
			}
		}
		deps := make([]int, 0, len(depSet))
		for d := range depSet {
			deps = append(deps, d)
		}
		sort.Ints(deps)

		k := k
		expr, bound := ic.Expr, ic.Bound
		weights := tr.Time.Weights
		scalars = append(scalars, Scalar{
			Name: scalarName(ic.Name, false, overXi, 0, k),
			Deps: deps,
			Eval: func(x []float64) float64 {
				sum := 0.0
				for ti, w := range weights {
					sum += w * expr(&evalCtx{tr: tr, x: x, ti: ti, k: k, allowTime: true, allowXi: overXi})
				}
				return sum - bound
			},
		})
	}
	return scalars, nil
}

// buildObjective transcribes the time integral of the objective
// expression with the grid's quadrature weights. The expression may only
// read time-indexed variables.
func (tr *Transcription) buildObjective(obj model.Objective) (Scalar, error) {
	depSet := make(map[int]struct{})
	for ti := 0; ti < tr.Time.Len(); ti++ {
		deps, err := tr.probe("objective", obj.Expr, ti, 0, true, false)
		if err != nil {
			return Scalar{}, err
		}
		for _, d := range deps {
			depSet[d] = struct{}{}
		}
	}
	deps := make([]int, 0, len(depSet))
	for d := range depSet {
		deps = append(deps, d)
	}
	sort.Ints(deps)

	expr := obj.Expr
	weights := tr.Time.Weights
	return Scalar{
		Name: "objective",
		Deps: deps,
		Eval: func(x []float64) float64 {
			sum := 0.0
			for ti, w := range weights {
				sum += w * expr(&evalCtx{tr: tr, x: x, ti: ti, allowTime: true})
			}
			return sum
		},
	}, nil
}

func scalarName(base string, overTime, overXi bool, ti, k int) string {
	switch {
	case overTime && overXi:
		return fmt.Sprintf("%s[t=%d,xi=%d]", base, ti, k)
	case overTime:
		return fmt.Sprintf("%s[t=%d]", base, ti)
	case overXi:
		return fmt.Sprintf("%s[xi=%d]", base, k)
	default:
		return base
	}
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}
