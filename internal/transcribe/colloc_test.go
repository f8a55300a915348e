package transcribe

import (
	"math"
	"testing"
)

func applyRow(d interface{ At(i, j int) float64 }, row int, vals []float64) float64 {
	sum := 0.0
	for j := range vals {
		sum += d.At(row, j) * vals[j]
	}
	return sum
}

func TestDiffMatrixExactForQuadratics(t *testing.T) {
	ts := []float64{0, 1, 2, 3, 4, 5, 6}
	d := DiffMatrix(ts, 2)

	vals := make([]float64, len(ts))
	for i, tv := range ts {
		vals[i] = 3*tv*tv - 2*tv + 1
	}

	for i, tv := range ts {
		want := 6*tv - 2
		got := applyRow(d, i, vals)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("row %d: derivative %.6f, want %.6f", i, got, want)
		}
	}
}

func TestDiffMatrixNonUniformGrid(t *testing.T) {
	// Linear function: exact on any grid, any element size.
	ts := []float64{0, 0.5, 2, 3.5, 7, 10}
	d := DiffMatrix(ts, 2)

	vals := make([]float64, len(ts))
	for i, tv := range ts {
		vals[i] = 4*tv - 3
	}

	for i := range ts {
		got := applyRow(d, i, vals)
		if math.Abs(got-4) > 1e-9 {
			t.Errorf("row %d: derivative %.6f, want 4", i, got)
		}
	}
}

func TestDiffMatrixRowsAnnihilateConstants(t *testing.T) {
	ts := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	d := DiffMatrix(ts, 3)

	ones := make([]float64, len(ts))
	for i := range ones {
		ones[i] = 1
	}

	for i := range ts {
		got := applyRow(d, i, ones)
		if math.Abs(got) > 1e-9 {
			t.Errorf("row %d should sum to zero, got %.2e", i, got)
		}
	}
}

func TestDiffMatrixShortLastElement(t *testing.T) {
	// 6 points with 3-interval elements leaves a 2-interval tail.
	ts := []float64{0, 1, 2, 3, 4, 5}
	d := DiffMatrix(ts, 3)

	vals := make([]float64, len(ts))
	for i, tv := range ts {
		vals[i] = tv * tv
	}

	for i, tv := range ts {
		got := applyRow(d, i, vals)
		if math.Abs(got-2*tv) > 1e-9 {
			t.Errorf("row %d: derivative %.6f, want %.6f", i, got, 2*tv)
		}
	}
}
