package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/uqsim/internal/dynamo"
	"github.com/san-kum/uqsim/internal/montecarlo"
)

// Band is the spread of one state component across an ensemble, evaluated at
// every grid time.
type Band struct {
	Component int
	Times     []float64
	Mean      []float64
	Std       []float64
	Lower     []float64
	Upper     []float64
	Min       []float64
	Max       []float64
	// Quantiles used for Lower and Upper.
	Lo, Hi float64
}

// ComponentBand computes statistics of one component over the successful
// trajectories. lo and hi are the quantile levels of the band.
func ComponentBand(ens *montecarlo.Ensemble, component int, lo, hi float64) (*Band, error) {
	if !(lo >= 0 && lo < hi && hi <= 1) {
		return nil, fmt.Errorf("quantiles must satisfy 0 <= lo < hi <= 1, got %v, %v", lo, hi)
	}
	trajs := ens.Trajectories()
	if len(trajs) == 0 {
		return nil, fmt.Errorf("ensemble has no successful trajectories")
	}

	m := len(ens.Times)
	b := &Band{
		Component: component,
		Times:     append([]float64(nil), ens.Times...),
		Mean:      make([]float64, m),
		Std:       make([]float64, m),
		Lower:     make([]float64, m),
		Upper:     make([]float64, m),
		Min:       make([]float64, m),
		Max:       make([]float64, m),
		Lo:        lo,
		Hi:        hi,
	}

	column := make([]float64, len(trajs))
	for i := 0; i < m; i++ {
		for j, tr := range trajs {
			s := tr.States[i]
			if component < 0 || component >= len(s) {
				return nil, fmt.Errorf("%w: component %d out of range [0,%d)", dynamo.ErrShape, component, len(s))
			}
			column[j] = s[component]
		}
		b.Mean[i], b.Std[i] = meanStd(column)

		sort.Float64s(column)
		b.Lower[i] = stat.Quantile(lo, stat.Empirical, column, nil)
		b.Upper[i] = stat.Quantile(hi, stat.Empirical, column, nil)
		b.Min[i] = floats.Min(column)
		b.Max[i] = floats.Max(column)
	}

	return b, nil
}

// Summarize returns one band per state component.
func Summarize(ens *montecarlo.Ensemble, lo, hi float64) ([]*Band, error) {
	trajs := ens.Trajectories()
	if len(trajs) == 0 {
		return nil, fmt.Errorf("ensemble has no successful trajectories")
	}
	n := len(trajs[0].States[0])
	bands := make([]*Band, n)
	for c := 0; c < n; c++ {
		b, err := ComponentBand(ens, c, lo, hi)
		if err != nil {
			return nil, err
		}
		bands[c] = b
	}
	return bands, nil
}

// DrawMoments returns the per-component mean and standard deviation of the
// sampled vectors, before any transform.
func DrawMoments(ens *montecarlo.Ensemble) (mean, std []float64, err error) {
	draws := ens.Draws()
	if len(draws) == 0 {
		return nil, nil, fmt.Errorf("ensemble has no draws")
	}
	d := len(draws[0])
	mean = make([]float64, d)
	std = make([]float64, d)
	column := make([]float64, len(draws))
	for c := 0; c < d; c++ {
		for i, xi := range draws {
			column[i] = xi[c]
		}
		mean[c], std[c] = meanStd(column)
	}
	return mean, std, nil
}

// meanStd is stat.MeanStdDev with a zero spread for single values.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
