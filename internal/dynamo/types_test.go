package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Clone(t *testing.T) {
	src := State{1, 2, 3}
	c := src.Clone()
	c[0] = 99
	if src[0] != 1 {
		t.Error("Clone shares backing array with source")
	}
}

func TestIdentityTransform(t *testing.T) {
	xi := Params{0.5, -1}
	k := Identity(xi)
	if k[0] != 0.5 || k[1] != -1 {
		t.Errorf("Identity changed values: %v", k)
	}
	k[0] = 7
	if xi[0] != 0.5 {
		t.Error("Identity returned an alias of its input")
	}
}

func TestTrajectory_Component(t *testing.T) {
	tr := &Trajectory{
		Times:  []float64{0, 1, 2},
		States: []State{{1, 10}, {2, 20}, {3, 30}},
		ErrEst: []float64{0, 1e-9, 3e-9},
	}

	got, err := tr.Component(1)
	if err != nil {
		t.Fatalf("Component failed: %v", err)
	}
	if got[0] != 10 || got[2] != 30 {
		t.Errorf("Component(1) = %v", got)
	}

	if _, err := tr.Component(2); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}

	if tr.Final()[0] != 3 {
		t.Errorf("Final() = %v", tr.Final())
	}
	if tr.MaxErrEst() != 3e-9 {
		t.Errorf("MaxErrEst() = %v", tr.MaxErrEst())
	}
}

func TestStatePool(t *testing.T) {
	pool := NewStatePool(4)

	s1 := pool.Get()
	if len(s1) != 4 {
		t.Errorf("Pool returned wrong size: %d", len(s1))
	}

	s1[0] = 1.0
	s1[1] = 2.0
	pool.Put(s1)

	s2 := pool.Get()
	if s2[0] != 0 || s2[1] != 0 {
		t.Error("Pool did not reset state")
	}
}

func TestStepError(t *testing.T) {
	err := &StepError{Step: 150, Time: 1.5, Wrapped: ErrNonFinite}
	expected := "step 150 (t=1.5000): dynamo: non-finite value (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("StepError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrNonFinite) {
		t.Error("StepError does not unwrap to its cause")
	}
}

func TestSampleError(t *testing.T) {
	inner := &StepError{Step: 3, Time: 0.3, Wrapped: ErrShape}
	err := &SampleError{Index: 7, Seed: 42, Wrapped: inner}

	var se *StepError
	if !errors.As(err, &se) || se.Step != 3 {
		t.Errorf("SampleError does not expose StepError: %v", err)
	}
	if !errors.Is(err, ErrShape) {
		t.Error("SampleError does not unwrap to ErrShape")
	}
}
