package solver

import "errors"

var (
	// ErrInfeasible indicates no feasible point was found.
	ErrInfeasible = errors.New("solver: problem infeasible")

	// ErrConvergence indicates the iteration budget ran out before the
	// tolerances were met; the best iterate is still available.
	ErrConvergence = errors.New("solver: failed to converge within iteration budget")

	// ErrNumerical indicates the solve broke down numerically.
	ErrNumerical = errors.New("solver: numerical breakdown")

	// ErrInterrupted indicates the solve was canceled.
	ErrInterrupted = errors.New("solver: solve interrupted")
)

// StatusError maps a non-optimal status onto its sentinel error, or nil
// for optimal/unknown.
func StatusError(s Status) error {
	switch s {
	case StatusInfeasible:
		return ErrInfeasible
	case StatusIterationLimit:
		return ErrConvergence
	case StatusNumerical:
		return ErrNumerical
	case StatusInterrupted:
		return ErrInterrupted
	default:
		return nil
	}
}
