// Package dynamo provides core primitives for parametrized dynamical systems.
//
// The package defines the types shared by the integrator and the Monte Carlo
// propagator:
//
//   - [State]: vector representing system state at one time point
//   - [Params]: parameter vector fixed for one trajectory
//   - [System]: right-hand side of dX/dt = f(X, t, p)
//   - [Transform]: maps sampled values into physical parameters
//   - [Trajectory]: states at every point of a time grid
//
// # Example
//
//	sys := models.NewNitrate()
//	k := models.LogRate(models.RateScale)(models.NominalLogRates)
//	traj, err := integrators.Integrate(sys, x0, grid, k)
//
// # Errors
//
// Shape problems wrap [ErrShape] and are reported before any numeric work.
// Failures inside a step are wrapped in a [StepError] carrying the step index,
// and failures of one Monte Carlo sample in a [SampleError] carrying the
// sample index and seed.
package dynamo
