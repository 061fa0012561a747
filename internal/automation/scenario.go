package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/uqsim/internal/config"
	"github.com/san-kum/uqsim/internal/experiment"
	"github.com/san-kum/uqsim/internal/montecarlo"
)

// Scenario is a scripted sequence of propagations.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and overrides the
// non-zero fields.
type ScenarioStep struct {
	Name       string  `yaml:"name"`
	Model      string  `yaml:"model"`
	Preset     string  `yaml:"preset"`
	Integrator string  `yaml:"integrator"`
	T1         float64 `yaml:"t1"`
	Points     int     `yaml:"points"`
	Samples    int     `yaml:"samples"`
	Seed       uint64  `yaml:"seed"`
	Workers    int     `yaml:"workers"`
	Tolerant   bool    `yaml:"tolerant"`
}

type StepResult struct {
	Name     string
	Config   *config.Config
	Ensemble *montecarlo.Ensemble
	Labels   []string
	Marginal []montecarlo.Gaussian
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the run configuration of one step.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets(s.Model))
		}
	}
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.T1 != 0 {
		cfg.T1 = s.T1
	}
	if s.Points != 0 {
		cfg.Points = s.Points
	}
	if s.Samples != 0 {
		cfg.Samples = s.Samples
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Workers != 0 {
		cfg.Workers = s.Workers
	}
	if s.Tolerant {
		cfg.Tolerant = true
	}
	return cfg, nil
}

// RunScenario executes every step in order and stops at the first error.
// Results of the steps that completed are returned with it.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, logger zerolog.Logger, opts ...experiment.Option) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		logger.Info().Int("step", i+1).Int("of", len(scenario.Steps)).Str("name", name).Msg("running scenario step")

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, reg, opts...)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		ens, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{
			Name:     name,
			Config:   cfg,
			Ensemble: ens,
			Labels:   exp.Labels(),
			Marginal: exp.Marginals(),
		})
	}

	return results, nil
}
