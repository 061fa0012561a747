package integrators

import "github.com/san-kum/uqsim/internal/dynamo"

type RK4 struct {
	scratch scratchPools
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, h float64, p dynamo.Params) (dynamo.State, float64, error) {
	n := len(x)
	pool := r.scratch.get(n)
	xs2, xs3, xs4 := pool.Get(), pool.Get(), pool.Get()
	defer func() {
		pool.Put(xs2)
		pool.Put(xs3)
		pool.Put(xs4)
	}()

	k1, err := derive(sys, x, t, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs2[i] = x[i] + h*0.5*k1[i]
	}
	k2, err := derive(sys, xs2, t+h*0.5, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs3[i] = x[i] + h*0.5*k2[i]
	}
	k3, err := derive(sys, xs3, t+h*0.5, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs4[i] = x[i] + h*k3[i]
	}
	k4, err := derive(sys, xs4, t+h, p)
	if err != nil {
		return nil, 0, err
	}

	result := make(dynamo.State, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + h6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result, 0, nil
}
