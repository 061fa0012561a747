// Package models provides right-hand-side functions for the integrator.
//
// Each model implements [dynamo.System]; the parameter vector is passed on
// every call, so one model value serves any number of trajectories:
//
//   - [Nitrate]: nitrate reduction over a catalyst, six species and five rates
//   - [Lorenz]: butterfly attractor with (sigma, rho, beta) as parameters
//   - [Pendulum]: damped pendulum with (damping, length) as parameters
//   - [Decay]: single-rate exponential decay with a closed-form solution
//
// Models whose parameters are sampled on a log scale come with a
// [dynamo.Transform], see [LogRate].
package models
