package storage

import (
	"math"
	"testing"

	"github.com/san-kum/infopt/internal/result"
)

func sampleResult() *result.Result {
	return &result.Result{
		Problem:   "seir",
		Status:    "optimal",
		Objective: 12.5,
		Ts:        []float64{0, 5, 10},
		Xis:       []float64{0.2, 0.4},
		Order:     []string{"i", "u"},
		Series: map[string]*result.Series{
			"i": {
				ID:     "i",
				Values: [][]float64{{0.01, 0.02}, {0.03, 0.05}, {0.02, 0.04}},
				Mean:   []float64{0.015, 0.04, 0.03},
				Std:    []float64{0.007, 0.014, 0.014},
			},
			"u": {
				ID:     "u",
				Values: [][]float64{{0.1}, {0.5}, {0.3}},
				Mean:   []float64{0.1, 0.5, 0.3},
				Std:    []float64{0, 0, 0},
			},
		},
	}
}

func TestSaveListLoadRoundtrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := st.Save(42, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("list should return the saved run, got %+v", runs)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Problem != "seir" || meta.Status != "optimal" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Samples != 2 || meta.TimePoints != 3 {
		t.Errorf("support sizes mismatch: %+v", meta)
	}
	if meta.Objective != 12.5 || meta.Seed != 42 {
		t.Errorf("run scalars mismatch: %+v", meta)
	}
	if len(meta.Variables) != 2 {
		t.Errorf("variables not recorded: %v", meta.Variables)
	}
}

func TestLoadSeriesRoundtrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	res := sampleResult()
	runID, err := st.Save(42, res)
	if err != nil {
		t.Fatal(err)
	}

	times, values, mean, std, err := st.LoadSeries(runID, "i")
	if err != nil {
		t.Fatal(err)
	}

	if len(times) != 3 || times[1] != 5 {
		t.Fatalf("times mismatch: %v", times)
	}
	for ti := range values {
		for k := range values[ti] {
			if math.Abs(values[ti][k]-res.Series["i"].Values[ti][k]) > 1e-9 {
				t.Errorf("value[%d][%d]: got %g, want %g",
					ti, k, values[ti][k], res.Series["i"].Values[ti][k])
			}
		}
		if math.Abs(mean[ti]-res.Series["i"].Mean[ti]) > 1e-9 {
			t.Errorf("mean[%d] mismatch", ti)
		}
		if math.Abs(std[ti]-res.Series["i"].Std[ti]) > 1e-9 {
			t.Errorf("std[%d] mismatch", ti)
		}
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadSeriesMissingVariable(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save(1, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := st.LoadSeries(runID, "nope"); err == nil {
		t.Error("expected error for missing variable")
	}
}
