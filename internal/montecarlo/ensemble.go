package montecarlo

import "github.com/san-kum/uqsim/internal/dynamo"

// Sample is the outcome of one draw: either a trajectory or an error.
type Sample struct {
	Index      int
	Xi         dynamo.Params
	K          dynamo.Params
	Trajectory *dynamo.Trajectory
	Err        error
}

func (s Sample) OK() bool { return s.Err == nil && s.Trajectory != nil }

// Failure is one entry of the failure manifest of a tolerant run.
type Failure struct {
	Index int
	Err   error
}

type Ensemble struct {
	Times   []float64
	Seed    uint64
	Samples []Sample
}

// Len is the number of samples drawn, failed ones included.
func (e *Ensemble) Len() int { return len(e.Samples) }

func (e *Ensemble) Succeeded() int {
	n := 0
	for _, s := range e.Samples {
		if s.OK() {
			n++
		}
	}
	return n
}

// Trajectories returns the successful trajectories in sample order.
func (e *Ensemble) Trajectories() []*dynamo.Trajectory {
	out := make([]*dynamo.Trajectory, 0, len(e.Samples))
	for _, s := range e.Samples {
		if s.OK() {
			out = append(out, s.Trajectory)
		}
	}
	return out
}

func (e *Ensemble) Failures() []Failure {
	var out []Failure
	for _, s := range e.Samples {
		if !s.OK() {
			out = append(out, Failure{Index: s.Index, Err: s.Err})
		}
	}
	return out
}

// Draws returns the sampled vectors of every sample whose draw succeeded.
func (e *Ensemble) Draws() []dynamo.Params {
	out := make([]dynamo.Params, 0, len(e.Samples))
	for _, s := range e.Samples {
		if s.Xi != nil {
			out = append(out, s.Xi)
		}
	}
	return out
}
