// Package analysis summarizes Monte Carlo ensembles.
//
// The package turns a [montecarlo.Ensemble] into per-time statistics:
//
//   - [ComponentBand]: mean, standard deviation, and a quantile band of one state component
//   - [Summarize]: bands for every component
//   - [DrawMoments]: empirical mean and standard deviation of the sampled vectors
//
// # Example
//
//	band, _ := analysis.ComponentBand(ens, 0, 0.05, 0.95)
//	fmt.Println(band.Mean[len(band.Mean)-1], band.Lower[len(band.Lower)-1])
package analysis
