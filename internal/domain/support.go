package domain

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// SupportSet is the finite realization of a domain after discretization.
// Values are sorted ascending for intervals and kept in draw order for
// distributions. Read-only after generation.
type SupportSet struct {
	Domain  Domain
	Values  []float64
	Weights []float64
}

// Len returns the number of supports.
func (s *SupportSet) Len() int { return len(s.Values) }

// IndexOf returns the position of v in the support set, or -1.
func (s *SupportSet) IndexOf(v float64) int {
	for i, sv := range s.Values {
		if sv == v || math.Abs(sv-v) <= mergeTol*math.Max(1, math.Abs(v)) {
			return i
		}
	}
	return -1
}

// mergeTol is the relative tolerance under which two supports collapse.
const mergeTol = 1e-12

// Grid realizes an interval domain: Points equidistant supports over
// [T0, TF] merged with the spec's extra supports, deduplicated, sorted.
// Weights are trapezoid quadrature weights summing to TF-T0.
func (d Domain) Grid(spec GridSpec) (*SupportSet, error) {
	if d.Kind != KindInterval {
		return nil, fmt.Errorf("%w: grid on %s domain %q", ErrWrongKind, d.Kind, d.Name)
	}
	if d.Span() <= 0 {
		return nil, fmt.Errorf("%w: domain %q [%g, %g]", ErrEmptySpan, d.Name, d.T0, d.TF)
	}
	if spec.Points < 2 {
		return nil, fmt.Errorf("%w: domain %q got %d", ErrBadPointCount, d.Name, spec.Points)
	}
	if spec.Nodes < 1 {
		return nil, fmt.Errorf("%w: domain %q got %d", ErrBadNodeCount, d.Name, spec.Nodes)
	}

	vals := make([]float64, 0, spec.Points+len(spec.Extra))
	step := d.Span() / float64(spec.Points-1)
	for i := 0; i < spec.Points; i++ {
		vals = append(vals, d.T0+float64(i)*step)
	}
	// Exact endpoints regardless of step rounding.
	vals[len(vals)-1] = d.TF

	for _, e := range spec.Extra {
		if e < d.T0 || e > d.TF {
			return nil, fmt.Errorf("%w: %g not in [%g, %g] of domain %q",
				ErrExtraOutOfRange, e, d.T0, d.TF, d.Name)
		}
		vals = append(vals, e)
	}

	sort.Float64s(vals)
	vals = dedupe(vals)

	return &SupportSet{Domain: d, Values: vals, Weights: trapezoid(vals)}, nil
}

// Sample realizes a distribution domain: Samples independent uniform draws
// from a source seeded with spec.Seed, each carrying probability weight
// 1/Samples. Identical specs reproduce identical draws.
func (d Domain) Sample(spec SampleSpec) (*SupportSet, error) {
	if d.Kind != KindDistribution {
		return nil, fmt.Errorf("%w: sampling %s domain %q", ErrWrongKind, d.Kind, d.Name)
	}
	if d.Span() <= 0 {
		return nil, fmt.Errorf("%w: domain %q [%g, %g]", ErrEmptySpan, d.Name, d.Lo, d.Hi)
	}
	if spec.Samples < 1 {
		return nil, fmt.Errorf("%w: domain %q got %d", ErrBadSampleCount, d.Name, spec.Samples)
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	vals := make([]float64, spec.Samples)
	weights := make([]float64, spec.Samples)
	w := 1.0 / float64(spec.Samples)
	for i := range vals {
		vals[i] = d.Lo + rng.Float64()*d.Span()
		weights[i] = w
	}

	return &SupportSet{Domain: d, Values: vals, Weights: weights}, nil
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:1]
	for _, v := range sorted[1:] {
		last := out[len(out)-1]
		if math.Abs(v-last) <= mergeTol*math.Max(1, math.Abs(v)) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// trapezoid returns composite trapezoid weights over a sorted grid.
// The weights sum to the grid span.
func trapezoid(ts []float64) []float64 {
	w := make([]float64, len(ts))
	for i := 0; i < len(ts)-1; i++ {
		h := ts[i+1] - ts[i]
		w[i] += h / 2
		w[i+1] += h / 2
	}
	return w
}
