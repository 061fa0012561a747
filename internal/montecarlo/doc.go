// Package montecarlo propagates parameter uncertainty through an ODE.
//
// A [Propagator] draws one parameter vector per sample from independent
// [Gaussian] marginals, maps it through a [dynamo.Transform], and integrates
// the system on the caller's time grid. The result is an [Ensemble] with one
// [Sample] per draw, in draw order.
//
// # Reproducibility
//
// Sample i always draws from its own PCG stream seeded with (seed, i), so an
// ensemble depends only on its inputs and seed, never on the number of
// workers or on completion order.
//
// # Failure policy
//
// By default a failing sample fails the whole call with a
// [dynamo.SampleError]. With Config.Tolerant set, failures stay in the
// ensemble and are listed by [Ensemble.Failures].
package montecarlo
