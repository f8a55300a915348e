package transcribe

import (
	"gonum.org/v1/gonum/mat"
)

// DiffMatrix builds the global collocation differentiation matrix for a
// sorted time grid. The grid is partitioned into finite elements of
// `nodes` consecutive intervals (the last element may be shorter); within
// each element the derivative rows come from the Lagrange interpolant
// through the element's points, via barycentric weights. Element boundary
// points take their row from the element to their right; the final grid
// point takes it from the last element.
//
// Row i of the result expresses dx/dt at grid point i as a linear
// combination of x at all grid points.
func DiffMatrix(ts []float64, nodes int) *mat.Dense {
	n := len(ts)
	d := mat.NewDense(n, n, nil)

	start := 0
	for start < n-1 {
		end := start + nodes
		if end > n-1 {
			end = n - 1
		}
		local := lagrangeDiff(ts[start : end+1])

		for r := start; r < end; r++ {
			for c := start; c <= end; c++ {
				d.Set(r, c, local[r-start][c-start])
			}
		}
		if end == n-1 {
			for c := start; c <= end; c++ {
				d.Set(end, c, local[end-start][c-start])
			}
		}
		start = end
	}

	return d
}

// lagrangeDiff returns the differentiation matrix of the Lagrange basis
// through pts, using barycentric weights. Exact for polynomials of degree
// len(pts)-1. Handles non-uniform spacing.
func lagrangeDiff(pts []float64) [][]float64 {
	m := len(pts)
	w := make([]float64, m)
	for j := 0; j < m; j++ {
		w[j] = 1
		for k := 0; k < m; k++ {
			if k != j {
				w[j] /= pts[j] - pts[k]
			}
		}
	}

	d := make([][]float64, m)
	for r := 0; r < m; r++ {
		d[r] = make([]float64, m)
		sum := 0.0
		for c := 0; c < m; c++ {
			if c == r {
				continue
			}
			d[r][c] = (w[c] / w[r]) / (pts[r] - pts[c])
			sum += d[r][c]
		}
		d[r][r] = -sum
	}
	return d
}
