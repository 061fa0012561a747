package config

func nitrateMarginals(scale float64) []MarginalConfig {
	return []MarginalConfig{
		{Loc: 1.359, Scale: scale},
		{Loc: 1.657, Scale: scale},
		{Loc: 1.347, Scale: scale},
		{Loc: -0.162, Scale: scale},
		{Loc: -1.009, Scale: scale},
	}
}

var Presets = map[string]map[string]*Config{
	"nitrate": {
		"nominal": {
			Model: "nitrate", Integrator: "rkf45", T0: 0, T1: 180, Points: 100, Samples: 200, Seed: 42,
			InitState: []float64{500, 0, 0, 0, 0, 0},
			Marginals: nitrateMarginals(0.1),
		},
		"wide": {
			Model: "nitrate", Integrator: "rkf45", T0: 0, T1: 180, Points: 100, Samples: 1000, Seed: 42, Workers: 4,
			InitState: []float64{500, 0, 0, 0, 0, 0},
			Marginals: nitrateMarginals(0.3),
		},
		"long": {
			Model: "nitrate", Integrator: "rkf45", T0: 0, T1: 720, Points: 400, Samples: 200, Seed: 42,
			InitState: []float64{500, 0, 0, 0, 0, 0},
			Marginals: nitrateMarginals(0.1),
		},
	},
	"lorenz": {
		"chaos": {
			Model: "lorenz", Integrator: "rkf45", T0: 0, T1: 20, Points: 4001, Samples: 50, Seed: 1,
			InitState: []float64{1, 1, 1},
			Marginals: []MarginalConfig{{Loc: 10, Scale: 0.01}, {Loc: 28, Scale: 0.01}, {Loc: 8.0 / 3.0, Scale: 0.01}},
		},
	},
	"pendulum": {
		"damping": {
			Model: "pendulum", Integrator: "rk4", T0: 0, T1: 20, Points: 2001, Samples: 100, Seed: 7,
			InitState: []float64{0.5, 0},
			Marginals: []MarginalConfig{{Loc: 0.1, Scale: 0.03}, {Loc: 1.0, Scale: 0.05}},
		},
	},
	"decay": {
		"unit": {
			Model: "decay", Integrator: "rkf45", T0: 0, T1: 5, Points: 51, Samples: 500, Seed: 3,
			InitState: []float64{1},
			Marginals: []MarginalConfig{{Loc: 1, Scale: 0.1}},
		},
	},
}

// GetPreset returns a copy of the preset, with band defaults filled in.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.InitState = append([]float64(nil), cfg.InitState...)
	c.Marginals = append([]MarginalConfig(nil), cfg.Marginals...)
	if c.Band == (BandConfig{}) {
		c.Band = BandConfig{Lo: DefaultBandLo, Hi: DefaultBandHi}
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
