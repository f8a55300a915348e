// Package result maps a flat solved decision vector back onto the
// (time, uncertainty)-indexed variable arrays and derives per-time
// statistics across the uncertainty axis.
package result

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/infopt/internal/solver"
	"github.com/san-kum/infopt/internal/transcribe"
)

// Series is one variable's reconstructed trajectory. Values is indexed
// [time][sample]; time-free or sample-free axes have length one. Mean
// and Std aggregate across samples per time point (Std is zero for a
// single sample).
type Series struct {
	ID     string      `json:"id"`
	Values [][]float64 `json:"values"`
	Mean   []float64   `json:"mean"`
	Std    []float64   `json:"std"`
}

// Result is the solved run in support-grid coordinates.
type Result struct {
	Problem      string             `json:"problem"`
	Status       string             `json:"status"`
	Objective    float64            `json:"objective"`
	MaxViolation float64            `json:"max_violation"`
	OuterIters   int                `json:"outer_iterations"`
	Runtime      time.Duration      `json:"runtime_ns"`
	Ts           []float64          `json:"ts"`
	Xis          []float64          `json:"xis"`
	Series       map[string]*Series `json:"series"`
	Order        []string           `json:"order"`
}

// Reconstruct rebuilds per-variable arrays from the solution vector,
// preserving the transcription's support ordering.
func Reconstruct(tr *transcribe.Transcription, sol *solver.Solution) (*Result, error) {
	res := &Result{
		Problem:      tr.Problem.Name,
		Status:       sol.Status.String(),
		Objective:    sol.Objective,
		MaxViolation: sol.MaxViolation,
		OuterIters:   sol.OuterIters,
		Runtime:      sol.Runtime,
		Ts:           append([]float64(nil), tr.Time.Values...),
		Series:       make(map[string]*Series, len(tr.Order)),
	}
	if tr.Xi != nil {
		res.Xis = append([]float64(nil), tr.Xi.Values...)
	}

	for _, id := range tr.Order {
		b := tr.Blocks[id]
		s := &Series{
			ID:     string(id),
			Values: make([][]float64, b.NT),
			Mean:   make([]float64, b.NT),
			Std:    make([]float64, b.NT),
		}

		for ti := 0; ti < b.NT; ti++ {
			row := make([]float64, b.NK)
			for k := 0; k < b.NK; k++ {
				idx, err := tr.FlatIndex(id, ti, k)
				if err != nil {
					return nil, err
				}
				row[k] = sol.X[idx]
			}
			s.Values[ti] = row
			s.Mean[ti] = stat.Mean(row, nil)
			if b.NK > 1 {
				s.Std[ti] = stat.StdDev(row, nil)
			}
		}

		res.Series[string(id)] = s
		res.Order = append(res.Order, string(id))
	}

	return res, nil
}
