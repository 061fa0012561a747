package models

import "github.com/san-kum/uqsim/internal/dynamo"

// Lorenz takes its parameters as [sigma, rho, beta].
type Lorenz struct{}

func NewLorenz() *Lorenz        { return &Lorenz{} }
func (l *Lorenz) StateDim() int { return 3 }
func (l *Lorenz) ParamDim() int { return 3 }

func (l *Lorenz) Labels() []string { return []string{"x", "y", "z"} }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(s dynamo.State, _ float64, p dynamo.Params) (dynamo.State, error) {
	sigma, rho, beta := p[0], p[1], p[2]
	return dynamo.State{sigma * (s[1] - s[0]), s[0]*(rho-s[2]) - s[1], s[0]*s[1] - beta*s[2]}, nil
}

func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

// LorenzClassic are the textbook chaotic parameters.
var LorenzClassic = dynamo.Params{10.0, 28.0, 8.0 / 3.0}
