package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/uqsim/internal/dynamo"
)

// Integrator advances a state over a caller-supplied time grid, one step per
// grid interval. It holds no per-run state and may be shared across
// goroutines.
type Integrator struct {
	stepper        Stepper
	allowNonFinite bool
}

type Option func(*Integrator)

// WithAllowNonFinite lets NaN and Inf flow into the trajectory instead of
// failing the integration.
func WithAllowNonFinite() Option {
	return func(in *Integrator) { in.allowNonFinite = true }
}

func New(stepper Stepper, opts ...Option) *Integrator {
	in := &Integrator{stepper: stepper}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func (in *Integrator) Stepper() Stepper { return in.stepper }

// Integrate integrates sys over grid with the RKF45 stepper.
func Integrate(sys dynamo.System, y0 dynamo.State, grid []float64, p dynamo.Params) (*dynamo.Trajectory, error) {
	return New(NewRKF45()).Integrate(sys, y0, grid, p)
}

// Validate reports shape problems without doing any numeric work. A system
// reporting StateDim 0 accepts any state length; a negative ParamDim accepts
// any parameter length.
func (in *Integrator) Validate(sys dynamo.System, y0 dynamo.State, grid []float64, p dynamo.Params) error {
	if len(grid) < 2 {
		return fmt.Errorf("%w: time grid needs at least 2 points, got %d", dynamo.ErrShape, len(grid))
	}
	for i, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: time grid entry %d is not finite", dynamo.ErrShape, i)
		}
		if i > 0 && t <= grid[i-1] {
			return fmt.Errorf("%w: time grid not strictly increasing at index %d (%g <= %g)", dynamo.ErrShape, i, t, grid[i-1])
		}
	}
	if len(y0) == 0 {
		return fmt.Errorf("%w: empty initial state", dynamo.ErrShape)
	}
	if n := sys.StateDim(); n > 0 && len(y0) != n {
		return fmt.Errorf("%w: initial state has length %d, system expects %d", dynamo.ErrShape, len(y0), n)
	}
	if m := sys.ParamDim(); m >= 0 && len(p) != m {
		return fmt.Errorf("%w: parameter vector has length %d, system expects %d", dynamo.ErrShape, len(p), m)
	}
	return nil
}

// Integrate returns one state per grid point. Entry 0 is a copy of y0; entry
// i is advanced from entry i-1 over grid[i]-grid[i-1]. On error no trajectory
// is returned.
func (in *Integrator) Integrate(sys dynamo.System, y0 dynamo.State, grid []float64, p dynamo.Params) (*dynamo.Trajectory, error) {
	if err := in.Validate(sys, y0, grid, p); err != nil {
		return nil, err
	}

	m := len(grid)
	traj := &dynamo.Trajectory{
		Times:  make([]float64, m),
		States: make([]dynamo.State, m),
		ErrEst: make([]float64, m),
	}
	copy(traj.Times, grid)
	traj.States[0] = y0.Clone()

	x := traj.States[0]
	for i := 1; i < m; i++ {
		t := grid[i-1]
		h := grid[i] - t

		next, errEst, err := in.stepper.Step(sys, x, t, h, p)
		if err != nil {
			return nil, &dynamo.StepError{Step: i, Time: t, Wrapped: err}
		}
		if !in.allowNonFinite && !next.IsValid() {
			return nil, &dynamo.StepError{Step: i, Time: t, Wrapped: dynamo.ErrNonFinite}
		}

		traj.States[i] = next
		traj.ErrEst[i] = errEst
		x = next
	}

	return traj, nil
}
