package models

import (
	"math"

	"github.com/san-kum/uqsim/internal/dynamo"
)

// Pendulum is a damped pendulum with unit mass. Parameters are
// [damping, length]; the state is [theta, omega].
type Pendulum struct {
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{Gravity: 9.81}
}

func (p *Pendulum) StateDim() int { return 2 }
func (p *Pendulum) ParamDim() int { return 2 }

func (p *Pendulum) Labels() []string { return []string{"theta", "omega"} }

func (p *Pendulum) Derive(x dynamo.State, _ float64, k dynamo.Params) (dynamo.State, error) {
	theta, omega := x[0], x[1]
	damping, length := k[0], k[1]
	alpha := -damping*omega - p.Gravity/length*math.Sin(theta)
	return dynamo.State{omega, alpha}, nil
}

func (p *Pendulum) DefaultState() dynamo.State { return dynamo.State{0.5, 0} }

// Energy per unit mass for a given length.
func (p *Pendulum) Energy(x dynamo.State, length float64) float64 {
	theta, omega := x[0], x[1]
	return 0.5*length*length*omega*omega + p.Gravity*length*(1-math.Cos(theta))
}
