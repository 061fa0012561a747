package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration and propagation.
var (
	// ErrShape indicates mismatched lengths or an unusable time grid.
	ErrShape = errors.New("dynamo: shape mismatch")

	// ErrNonFinite indicates a NaN or Inf produced during a step.
	ErrNonFinite = errors.New("dynamo: non-finite value (NaN or Inf detected)")

	// ErrInvalidDistribution indicates unusable marginal distribution parameters.
	ErrInvalidDistribution = errors.New("dynamo: invalid distribution parameters")

	// ErrCanceled indicates the propagation was interrupted.
	ErrCanceled = errors.New("dynamo: propagation canceled by context")
)

// StepError wraps an error with integration context.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// SampleError wraps an error with the Monte Carlo sample that produced it.
// Index and Seed are enough to redraw the same parameters.
type SampleError struct {
	Index   int
	Seed    uint64
	Wrapped error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d (seed=%d): %v", e.Index, e.Seed, e.Wrapped)
}

func (e *SampleError) Unwrap() error {
	return e.Wrapped
}
