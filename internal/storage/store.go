package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/infopt/internal/result"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string        `json:"id"`
	Problem      string        `json:"problem"`
	Timestamp    time.Time     `json:"timestamp"`
	Seed         int64         `json:"seed"`
	Samples      int           `json:"samples"`
	TimePoints   int           `json:"time_points"`
	Status       string        `json:"status"`
	Objective    float64       `json:"objective"`
	MaxViolation float64       `json:"max_violation"`
	OuterIters   int           `json:"outer_iterations"`
	Runtime      time.Duration `json:"runtime_ns"`
	Variables    []string      `json:"variables"`
}

// Save writes a run directory: metadata.json, supports.csv with the
// realized grid and samples, and one CSV per variable with the
// (time x sample) solution values.
func (s *Store) Save(seed int64, res *result.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", res.Problem, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Problem:      res.Problem,
		Timestamp:    time.Now(),
		Seed:         seed,
		Samples:      len(res.Xis),
		TimePoints:   len(res.Ts),
		Status:       res.Status,
		Objective:    res.Objective,
		MaxViolation: res.MaxViolation,
		OuterIters:   res.OuterIters,
		Runtime:      res.Runtime,
		Variables:    res.Order,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.writeSupports(runDir, res); err != nil {
		return "", err
	}

	for _, id := range res.Order {
		if err := s.writeSeries(runDir, res, res.Series[id]); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) writeSupports(runDir string, res *result.Result) error {
	file, err := os.Create(filepath.Join(runDir, "supports.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"axis", "index", "value"}); err != nil {
		return err
	}
	for i, t := range res.Ts {
		if err := w.Write([]string{"t", strconv.Itoa(i), formatFloat(t)}); err != nil {
			return err
		}
	}
	for k, xi := range res.Xis {
		if err := w.Write([]string{"xi", strconv.Itoa(k), formatFloat(xi)}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeSeries(runDir string, res *result.Result, series *result.Series) error {
	file, err := os.Create(filepath.Join(runDir, series.ID+".csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"t"}
	for k := range series.Values[0] {
		header = append(header, fmt.Sprintf("sample_%d", k))
	}
	header = append(header, "mean", "std")
	if err := w.Write(header); err != nil {
		return err
	}

	for ti, tv := range res.Ts {
		if ti >= len(series.Values) {
			break
		}
		row := []string{formatFloat(tv)}
		for _, v := range series.Values[ti] {
			row = append(row, formatFloat(v))
		}
		row = append(row, formatFloat(series.Mean[ti]), formatFloat(series.Std[ti]))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSeries reads one variable's CSV back as times, per-time sample
// rows, and the stored mean/std columns.
func (s *Store) LoadSeries(runID, variable string) ([]float64, [][]float64, []float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, variable+".csv"))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, nil, nil, fmt.Errorf("storage: series %s of run %s is empty", variable, runID)
	}

	nCols := len(records[0])
	times := make([]float64, 0, len(records)-1)
	values := make([][]float64, 0, len(records)-1)
	mean := make([]float64, 0, len(records)-1)
	std := make([]float64, 0, len(records)-1)

	for _, rec := range records[1:] {
		if len(rec) != nCols {
			continue
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		row := make([]float64, 0, nCols-3)
		ok := true
		for _, cell := range rec[1 : nCols-2] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				ok = false
				break
			}
			row = append(row, v)
		}
		if !ok {
			continue
		}
		m, err1 := strconv.ParseFloat(rec[nCols-2], 64)
		sd, err2 := strconv.ParseFloat(rec[nCols-1], 64)
		if err1 != nil || err2 != nil {
			continue
		}

		times = append(times, t)
		values = append(values, row)
		mean = append(mean, m)
		std = append(std, sd)
	}

	return times, values, mean, std, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}
