package dynamo

import "sync"

// StatePool recycles fixed-size scratch states. It is safe for concurrent use,
// so one stepper can serve many integrations running in parallel.
type StatePool struct {
	pool sync.Pool
	size int
}

func NewStatePool(stateSize int) *StatePool {
	return &StatePool{
		size: stateSize,
		pool: sync.Pool{
			New: func() any {
				return make(State, stateSize)
			},
		},
	}
}

func (p *StatePool) Size() int { return p.size }

func (p *StatePool) Get() State {
	return p.pool.Get().(State)
}

func (p *StatePool) Put(s State) {
	if len(s) == p.size {
		clear(s)
		p.pool.Put(s)
	}
}
