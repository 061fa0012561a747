package integrators

import (
	"fmt"
	"sync"

	"github.com/san-kum/uqsim/internal/dynamo"
)

// Stepper advances a state by one step of size h. The second return value is
// the embedded local error estimate, or zero for methods without one.
type Stepper interface {
	Step(sys dynamo.System, x dynamo.State, t, h float64, p dynamo.Params) (dynamo.State, float64, error)
}

// derive evaluates one stage and checks the derivative length.
func derive(sys dynamo.System, x dynamo.State, t float64, p dynamo.Params) (dynamo.State, error) {
	dx, err := sys.Derive(x, t, p)
	if err != nil {
		return nil, err
	}
	if len(dx) != len(x) {
		return nil, fmt.Errorf("%w: derivative has length %d, state has %d", dynamo.ErrShape, len(dx), len(x))
	}
	return dx, nil
}

// scratchPools hands out one StatePool per state dimension.
type scratchPools struct {
	pools sync.Map
}

func (s *scratchPools) get(n int) *dynamo.StatePool {
	if p, ok := s.pools.Load(n); ok {
		return p.(*dynamo.StatePool)
	}
	p, _ := s.pools.LoadOrStore(n, dynamo.NewStatePool(n))
	return p.(*dynamo.StatePool)
}
