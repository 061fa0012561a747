package models

import (
	"math"

	"github.com/san-kum/uqsim/internal/dynamo"
)

// Decay is dx/dt = -k x with the single parameter [k].
type Decay struct{}

func NewDecay() *Decay { return &Decay{} }

func (d *Decay) StateDim() int    { return 1 }
func (d *Decay) ParamDim() int    { return 1 }
func (d *Decay) Labels() []string { return []string{"x"} }

func (d *Decay) Derive(x dynamo.State, _ float64, p dynamo.Params) (dynamo.State, error) {
	return dynamo.State{-p[0] * x[0]}, nil
}

func (d *Decay) DefaultState() dynamo.State { return dynamo.State{1} }

// Exact is the closed-form solution x0 exp(-k t).
func (d *Decay) Exact(x0, k, t float64) float64 {
	return x0 * math.Exp(-k*t)
}
