package integrators

import (
	"math"

	"github.com/san-kum/uqsim/internal/dynamo"
)

// Runge-Kutta-Fehlberg coefficients (RKF45)
var (
	a2 = 1.0 / 4.0
	a3 = 3.0 / 8.0
	a4 = 12.0 / 13.0
	a5 = 1.0
	a6 = 1.0 / 2.0

	b21 = 1.0 / 4.0
	b31 = 3.0 / 32.0
	b32 = 9.0 / 32.0
	b41 = 1932.0 / 2197.0
	b42 = -7200.0 / 2197.0
	b43 = 7296.0 / 2197.0
	b51 = 439.0 / 216.0
	b52 = -8.0
	b53 = 3680.0 / 513.0
	b54 = -845.0 / 4104.0
	b61 = -8.0 / 27.0
	b62 = 2.0
	b63 = -3544.0 / 2565.0
	b64 = 1859.0 / 4104.0
	b65 = -11.0 / 40.0

	// fourth-order weights
	c1 = 25.0 / 216.0
	c3 = 1408.0 / 2565.0
	c4 = 2197.0 / 4104.0
	c5 = -1.0 / 5.0

	// fifth-order minus fourth-order weights
	dc1 = 16.0/135.0 - c1
	dc3 = 6656.0/12825.0 - c3
	dc4 = 28561.0/56430.0 - c4
	dc5 = -9.0/50.0 - c5
	dc6 = 2.0 / 55.0
)

// RKF45 is the classical Fehlberg 4(5) pair used at a fixed step. The
// fourth-order solution is returned; the fifth-order one only feeds the error
// estimate. Steps are never rejected or subdivided.
type RKF45 struct {
	scratch scratchPools
}

func NewRKF45() *RKF45 {
	return &RKF45{}
}

func (r *RKF45) Step(sys dynamo.System, x dynamo.State, t, h float64, p dynamo.Params) (dynamo.State, float64, error) {
	n := len(x)
	pool := r.scratch.get(n)
	// One buffer per stage: a derivative may alias its input and must stay
	// intact until the step is combined.
	xs2, xs3, xs4, xs5, xs6 := pool.Get(), pool.Get(), pool.Get(), pool.Get(), pool.Get()
	defer func() {
		for _, b := range []dynamo.State{xs2, xs3, xs4, xs5, xs6} {
			pool.Put(b)
		}
	}()

	k1, err := derive(sys, x, t, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs2[i] = x[i] + h*b21*k1[i]
	}
	k2, err := derive(sys, xs2, t+a2*h, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs3[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3, err := derive(sys, xs3, t+a3*h, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs4[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := derive(sys, xs4, t+a4*h, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs5[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := derive(sys, xs5, t+a5*h, p)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		xs6[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := derive(sys, xs6, t+a6*h, p)
	if err != nil {
		return nil, 0, err
	}

	xNew := make(dynamo.State, n)
	errMax := 0.0
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i])
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i])
		errMax = math.Max(errMax, math.Abs(errEst))
	}

	return xNew, errMax, nil
}
