package problems

// Params are the scalar inputs of the epidemic control problems. All
// compartment values are population fractions.
type Params struct {
	// Epidemic rates.
	Gamma      float64 // recovery rate
	Beta       float64 // transmission rate
	Population float64

	// Uncertain incubation rate range (exposed -> infectious).
	XiMin, XiMax float64

	// Infection cap and expectation budget.
	IMax    float64
	Epsilon float64

	// Horizon and discretization.
	T0, TF  float64
	Points  int
	Nodes   int
	ExtraTs []float64

	Samples int
	Seed    int64

	// Control (isolation measure) bounds.
	UMin, UMax float64

	// Initial compartment fractions. Left all-zero, a single seed case
	// of 1/Population starts in the exposed (SEIR) or infectious (SIR)
	// compartment.
	S0, E0, I0, R0 float64
}

// DefaultParams returns the reference scenario.
func DefaultParams() Params {
	return Params{
		Gamma:      0.303,
		Beta:       0.727,
		Population: 1e5,
		XiMin:      0.1,
		XiMax:      0.6,
		IMax:       0.02,
		Epsilon:    0.005,
		T0:         0,
		TF:         200,
		Points:     51,
		Nodes:      2,
		ExtraTs:    nil,
		Samples:    10,
		Seed:       42,
		UMin:       0,
		UMax:       0.8,
	}
}

func (p Params) seeded() bool {
	return p.S0 != 0 || p.E0 != 0 || p.I0 != 0 || p.R0 != 0
}
