package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel      = "nitrate"
	DefaultIntegrator = "rkf45"
	DefaultT0         = 0.0
	DefaultT1         = 180.0
	DefaultPoints     = 100
	DefaultSamples    = 200
	DefaultSeed       = 42
	DefaultBandLo     = 0.05
	DefaultBandHi     = 0.95

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "UQSIM_"
)

type Config struct {
	Model          string           `yaml:"model" env:"MODEL"`
	Integrator     string           `yaml:"integrator" env:"INTEGRATOR"`
	T0             float64          `yaml:"t0" env:"T0"`
	T1             float64          `yaml:"t1" env:"T1"`
	Points         int              `yaml:"points" env:"POINTS"`
	Samples        int              `yaml:"samples" env:"SAMPLES"`
	Seed           uint64           `yaml:"seed" env:"SEED"`
	Workers        int              `yaml:"workers" env:"WORKERS"`
	Tolerant       bool             `yaml:"tolerant" env:"TOLERANT"`
	AllowNonFinite bool             `yaml:"allow_non_finite" env:"ALLOW_NON_FINITE"`
	InitState      []float64        `yaml:"init_state,omitempty" env:"INIT_STATE"`
	Marginals      []MarginalConfig `yaml:"marginals,omitempty"`
	Band           BandConfig       `yaml:"band"`
}

// MarginalConfig is one independent Gaussian over a sampled parameter.
type MarginalConfig struct {
	Loc   float64 `yaml:"loc"`
	Scale float64 `yaml:"scale"`
}

// BandConfig holds the quantile levels reported around the ensemble mean.
type BandConfig struct {
	Lo float64 `yaml:"lo" env:"BAND_LO"`
	Hi float64 `yaml:"hi" env:"BAND_HI"`
}

// DefaultConfig leaves InitState and Marginals empty; the model supplies them.
func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		T0:         DefaultT0,
		T1:         DefaultT1,
		Points:     DefaultPoints,
		Samples:    DefaultSamples,
		Seed:       DefaultSeed,
		Workers:    1,
		Band:       BandConfig{Lo: DefaultBandLo, Hi: DefaultBandHi},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// ApplyEnv overrides fields from UQSIM_* environment variables. Unset
// variables leave the field alone.
func (c *Config) ApplyEnv() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

func (c *Config) Validate() error {
	if c.Points < 2 {
		return fmt.Errorf("points must be at least 2, got %d", c.Points)
	}
	if !(c.T1 > c.T0) {
		return fmt.Errorf("t1 (%g) must be greater than t0 (%g)", c.T1, c.T0)
	}
	if c.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", c.Samples)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if !(c.Band.Lo >= 0 && c.Band.Lo < c.Band.Hi && c.Band.Hi <= 1) {
		return fmt.Errorf("band quantiles must satisfy 0 <= lo < hi <= 1, got %g, %g", c.Band.Lo, c.Band.Hi)
	}
	return nil
}

// Grid returns Points evenly spaced times from T0 to T1 inclusive.
func (c *Config) Grid() []float64 {
	if c.Points < 2 {
		return []float64{c.T0}
	}
	grid := floats.Span(make([]float64, c.Points), c.T0, c.T1)
	// Span computes the last point as T0+step*(n-1).
	grid[c.Points-1] = c.T1
	return grid
}
