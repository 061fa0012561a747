package integrators

import "github.com/san-kum/uqsim/internal/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, h float64, p dynamo.Params) (dynamo.State, float64, error) {
	dx, err := derive(sys, x, t, p)
	if err != nil {
		return nil, 0, err
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + h*dx[i]
	}
	return result, 0, nil
}
