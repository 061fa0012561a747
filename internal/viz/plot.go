package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/uqsim/internal/analysis"
)

type PlotOptions struct {
	Width  int
	Height int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 12}
}

// BandPlot draws the lower quantile, mean and upper quantile of one
// component as three series.
func BandPlot(b *analysis.Band, label string, opts PlotOptions) string {
	caption := fmt.Sprintf("%s: mean (blue), q%.0f / q%.0f (gray), t in [%g, %g]",
		label, b.Lo*100, b.Hi*100, b.Times[0], b.Times[len(b.Times)-1])

	return asciigraph.PlotMany(
		[][]float64{finite(b.Lower), finite(b.Mean), finite(b.Upper)},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(asciigraph.DarkGray, asciigraph.Blue, asciigraph.DarkGray),
		asciigraph.Caption(caption),
	)
}

// LinePlot draws a single series, e.g. one component of the nominal run.
func LinePlot(values []float64, caption string, opts PlotOptions) string {
	return asciigraph.Plot(finite(values),
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}

// finite replaces non-finite points with the previous finite value so that
// runs with non-finite states still plot.
func finite(values []float64) []float64 {
	out := make([]float64, len(values))
	last := 0.0
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = last
		}
		out[i] = v
		last = v
	}
	return out
}
