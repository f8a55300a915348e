package config

var Presets = map[string]map[string]*Config{
	"seir": {
		"baseline": {
			Problem: "seir",
			Epidemic: EpidemicConfig{
				Gamma: 0.303, Beta: 0.727, Population: 1e5,
				XiMin: 0.1, XiMax: 0.6, IMax: 0.02, Epsilon: 0.005,
			},
			Horizon: HorizonConfig{TF: 200, Points: 51, Nodes: 2},
			Samples: 10, Seed: 42,
			Control: ControlConfig{UMax: 0.8},
		},
		"strict": {
			Problem: "seir",
			Epidemic: EpidemicConfig{
				Gamma: 0.303, Beta: 0.727, Population: 1e5,
				XiMin: 0.1, XiMax: 0.6, IMax: 0.01, Epsilon: 0.001,
			},
			Horizon: HorizonConfig{TF: 200, Points: 51, Nodes: 2},
			Samples: 10, Seed: 42,
			Control: ControlConfig{UMax: 0.8},
		},
		"coarse": {
			Problem: "seir",
			Epidemic: EpidemicConfig{
				Gamma: 0.303, Beta: 0.727, Population: 1e5,
				XiMin: 0.1, XiMax: 0.6, IMax: 0.02, Epsilon: 0.005,
			},
			Horizon: HorizonConfig{TF: 200, Points: 21, Nodes: 2},
			Samples: 5, Seed: 42,
			Control: ControlConfig{UMax: 0.8},
		},
	},
	"sir": {
		"baseline": {
			Problem: "sir",
			Epidemic: EpidemicConfig{
				Gamma: 0.303, Beta: 0.727, Population: 1e5,
				XiMin: 0.8, XiMax: 1.2, IMax: 0.02, Epsilon: 0.005,
			},
			Horizon: HorizonConfig{TF: 200, Points: 51, Nodes: 2},
			Samples: 10, Seed: 42,
			Control: ControlConfig{UMax: 0.8},
		},
		"single-scenario": {
			Problem: "sir",
			Epidemic: EpidemicConfig{
				Gamma: 0.303, Beta: 0.727, Population: 1e5,
				XiMin: 0.8, XiMax: 1.2, IMax: 0.02, Epsilon: 0.005,
			},
			Horizon: HorizonConfig{TF: 200, Points: 51, Nodes: 2},
			Samples: 1, Seed: 42,
			Control: ControlConfig{UMax: 0.8},
		},
	},
}

func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	return names
}
