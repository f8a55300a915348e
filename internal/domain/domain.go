package domain

// Kind discriminates the two infinite domain flavors.
type Kind int

const (
	// KindInterval is a continuous interval, typically time.
	KindInterval Kind = iota
	// KindDistribution is a random parameter with a sampling distribution.
	KindDistribution
)

func (k Kind) String() string {
	switch k {
	case KindInterval:
		return "interval"
	case KindDistribution:
		return "distribution"
	default:
		return "unknown"
	}
}

// Domain describes one infinite axis of a problem. Immutable once built.
type Domain struct {
	Name string
	Kind Kind

	// Interval bounds (KindInterval).
	T0, TF float64

	// Uniform distribution bounds (KindDistribution).
	Lo, Hi float64
}

// Interval builds a continuous interval domain over [t0, tf].
func Interval(name string, t0, tf float64) Domain {
	return Domain{Name: name, Kind: KindInterval, T0: t0, TF: tf}
}

// Uniform builds a uniformly distributed random parameter over [lo, hi].
func Uniform(name string, lo, hi float64) Domain {
	return Domain{Name: name, Kind: KindDistribution, Lo: lo, Hi: hi}
}

// Span returns the width of the domain.
func (d Domain) Span() float64 {
	if d.Kind == KindInterval {
		return d.TF - d.T0
	}
	return d.Hi - d.Lo
}

// GridSpec directs the discretization of an interval domain.
type GridSpec struct {
	// Points is the number of equidistant supports over [t0, tf],
	// endpoints included.
	Points int
	// Nodes is the number of intervals per collocation element.
	Nodes int
	// Extra supports merged into the equidistant grid.
	Extra []float64
}

// SampleSpec directs the discretization of a distribution domain.
type SampleSpec struct {
	// Samples is the number of independent draws.
	Samples int
	// Seed makes the draws reproducible.
	Seed int64
}
