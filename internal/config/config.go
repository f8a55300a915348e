package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/infopt/internal/problems"
	"github.com/san-kum/infopt/internal/solver"
)

const (
	DefaultGamma      = 0.303
	DefaultBeta       = 0.727
	DefaultPopulation = 1e5
	DefaultXiMin      = 0.1
	DefaultXiMax      = 0.6
	DefaultIMax       = 0.02
	DefaultEpsilon    = 0.005
	DefaultTF         = 200.0
	DefaultPoints     = 51
	DefaultNodes      = 2
	DefaultSamples    = 10
	DefaultSeed       = 42
	DefaultUMax       = 0.8
)

type Config struct {
	Problem  string         `yaml:"problem"`
	Epidemic EpidemicConfig `yaml:"epidemic"`
	Horizon  HorizonConfig  `yaml:"horizon"`
	Samples  int            `yaml:"samples"`
	Seed     int64          `yaml:"seed"`
	Control  ControlConfig  `yaml:"control"`
	Solver   SolverConfig   `yaml:"solver"`
}

type EpidemicConfig struct {
	Gamma      float64 `yaml:"gamma"`
	Beta       float64 `yaml:"beta"`
	Population float64 `yaml:"population"`
	XiMin      float64 `yaml:"xi_min"`
	XiMax      float64 `yaml:"xi_max"`
	IMax       float64 `yaml:"i_max"`
	Epsilon    float64 `yaml:"epsilon"`
}

type HorizonConfig struct {
	T0      float64   `yaml:"t0"`
	TF      float64   `yaml:"tf"`
	Points  int       `yaml:"points"`
	Nodes   int       `yaml:"nodes"`
	ExtraTs []float64 `yaml:"extra_ts"`
}

type ControlConfig struct {
	UMin float64 `yaml:"u_min"`
	UMax float64 `yaml:"u_max"`
}

type SolverConfig struct {
	MaxOuter   int     `yaml:"max_outer"`
	InnerIters int     `yaml:"inner_iters"`
	Tolerance  float64 `yaml:"tolerance"`
	Penalty    float64 `yaml:"penalty"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem: "seir",
		Epidemic: EpidemicConfig{
			Gamma:      DefaultGamma,
			Beta:       DefaultBeta,
			Population: DefaultPopulation,
			XiMin:      DefaultXiMin,
			XiMax:      DefaultXiMax,
			IMax:       DefaultIMax,
			Epsilon:    DefaultEpsilon,
		},
		Horizon: HorizonConfig{
			TF:     DefaultTF,
			Points: DefaultPoints,
			Nodes:  DefaultNodes,
		},
		Samples: DefaultSamples,
		Seed:    DefaultSeed,
		Control: ControlConfig{UMax: DefaultUMax},
		Solver: SolverConfig{
			MaxOuter:   30,
			InnerIters: 200,
			Tolerance:  1e-6,
			Penalty:    10,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params maps the config onto problem parameters.
func (c *Config) Params() problems.Params {
	return problems.Params{
		Gamma:      c.Epidemic.Gamma,
		Beta:       c.Epidemic.Beta,
		Population: c.Epidemic.Population,
		XiMin:      c.Epidemic.XiMin,
		XiMax:      c.Epidemic.XiMax,
		IMax:       c.Epidemic.IMax,
		Epsilon:    c.Epidemic.Epsilon,
		T0:         c.Horizon.T0,
		TF:         c.Horizon.TF,
		Points:     c.Horizon.Points,
		Nodes:      c.Horizon.Nodes,
		ExtraTs:    c.Horizon.ExtraTs,
		Samples:    c.Samples,
		Seed:       c.Seed,
		UMin:       c.Control.UMin,
		UMax:       c.Control.UMax,
	}
}

// SolverOptions maps the config onto adapter options.
func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		MaxOuter:   c.Solver.MaxOuter,
		InnerIters: c.Solver.InnerIters,
		Tol:        c.Solver.Tolerance,
		Penalty0:   c.Solver.Penalty,
	}
}
