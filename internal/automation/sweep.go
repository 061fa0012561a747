package automation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/uqsim/internal/analysis"
	"github.com/san-kum/uqsim/internal/config"
	"github.com/san-kum/uqsim/internal/experiment"
)

// ScaleSweep reruns a propagation while every marginal scale is set to each
// value in [ScaleMin, ScaleMax].
type ScaleSweep struct {
	Base      *config.Config
	Component int
	ScaleMin  float64
	ScaleMax  float64
	NumSteps  int
}

// SweepResult is the spread of the swept component at the final grid time.
type SweepResult struct {
	Scale     float64
	FinalMean float64
	FinalStd  float64
	Lower     float64
	Upper     float64
	Failed    int
}

func RunSweep(ctx context.Context, sweep *ScaleSweep, reg *experiment.Registry, logger zerolog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	if !(sweep.ScaleMin > 0 && sweep.ScaleMax > sweep.ScaleMin) {
		return nil, fmt.Errorf("sweep range must satisfy 0 < min < max, got [%g, %g]", sweep.ScaleMin, sweep.ScaleMax)
	}

	base, err := experiment.New(sweep.Base, reg, experiment.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	locs := base.Marginals()

	scales := floats.Span(make([]float64, sweep.NumSteps), sweep.ScaleMin, sweep.ScaleMax)
	scales[len(scales)-1] = sweep.ScaleMax

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i, scale := range scales {
		cfg := *sweep.Base
		cfg.Marginals = make([]config.MarginalConfig, len(locs))
		for j, m := range locs {
			cfg.Marginals[j] = config.MarginalConfig{Loc: m.Loc, Scale: scale}
		}

		exp, err := experiment.New(&cfg, reg, experiment.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		ens, err := exp.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("scale %g: %w", scale, err)
		}

		band, err := analysis.ComponentBand(ens, sweep.Component, cfg.Band.Lo, cfg.Band.Hi)
		if err != nil {
			return nil, fmt.Errorf("scale %g: %w", scale, err)
		}
		last := len(band.Times) - 1
		results = append(results, SweepResult{
			Scale:     scale,
			FinalMean: band.Mean[last],
			FinalStd:  band.Std[last],
			Lower:     band.Lower[last],
			Upper:     band.Upper[last],
			Failed:    ens.Len() - ens.Succeeded(),
		})

		logger.Debug().Int("step", i+1).Int("of", sweep.NumSteps).Float64("scale", scale).Msg("sweep step done")
	}

	return results, nil
}
