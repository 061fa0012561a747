package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type Params []float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	copy(c, p)
	return c
}

// System is the right-hand side of an ODE. Derive must be pure: the same
// inputs always give the same derivative and no state is kept between calls.
type System interface {
	Derive(x State, t float64, p Params) (State, error)
	StateDim() int
	ParamDim() int
}

// Labeled systems name their state components for output.
type Labeled interface {
	Labels() []string
}

// SystemFunc adapts a plain function into a System.
type SystemFunc struct {
	F      func(x State, t float64, p Params) (State, error)
	States int
	Params int
}

func (f SystemFunc) Derive(x State, t float64, p Params) (State, error) { return f.F(x, t, p) }
func (f SystemFunc) StateDim() int                                      { return f.States }
func (f SystemFunc) ParamDim() int                                      { return f.Params }

// Transform maps a sampled vector into the parameters handed to a System.
type Transform func(xi Params) Params

// Identity returns a copy of its input.
func Identity(xi Params) Params { return xi.Clone() }

// Trajectory holds one integration run. States[0] is the initial condition.
// ErrEst[i] is the embedded error estimate of the step that produced
// States[i]; steppers without one report zero.
type Trajectory struct {
	Times  []float64
	States []State
	ErrEst []float64
}

func (tr *Trajectory) Len() int { return len(tr.States) }

// Final returns the last state.
func (tr *Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Component extracts the series of one state component.
func (tr *Trajectory) Component(i int) ([]float64, error) {
	out := make([]float64, len(tr.States))
	for j, s := range tr.States {
		if i < 0 || i >= len(s) {
			return nil, fmt.Errorf("%w: component %d out of range [0,%d)", ErrShape, i, len(s))
		}
		out[j] = s[i]
	}
	return out, nil
}

// MaxErrEst is the largest per-step error estimate.
func (tr *Trajectory) MaxErrEst() float64 {
	m := 0.0
	for _, e := range tr.ErrEst {
		m = math.Max(m, e)
	}
	return m
}
