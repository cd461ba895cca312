package dynamo

import (
	"errors"
	"math"
	"strings"
	"sync/atomic"
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

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	c := a.Clone()
	c[0] = 99
	if a[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestDefaultTolerances(t *testing.T) {
	tol := DefaultTolerances()
	if err := tol.Validate(); err != nil {
		t.Fatalf("default tolerances invalid: %v", err)
	}
}

func TestTolerances_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tolerances)
	}{
		{"zero rel_tol", func(t *Tolerances) { t.RelTol = 0 }},
		{"negative abs_tol", func(t *Tolerances) { t.AbsTol = -1 }},
		{"NaN initial step", func(t *Tolerances) { t.InitialStep = math.NaN() }},
		{"negative max step", func(t *Tolerances) { t.MaxStep = -1 }},
		{"zero max steps", func(t *Tolerances) { t.MaxSteps = 0 }},
		{"zero newton iter", func(t *Tolerances) { t.MaxNewtonIter = 0 }},
		{"max scale below one", func(t *Tolerances) { t.MaxScale = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tol := DefaultTolerances()
			tt.mutate(&tol)
			err := tol.Validate()
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestTolerances_ErrorNorm(t *testing.T) {
	tol := Tolerances{RelTol: 0, AbsTol: 1e-3}
	norm := tol.ErrorNorm(State{1, 1}, State{1, 1}, State{1e-3, 1e-3})
	if math.Abs(norm-1) > 1e-12 {
		t.Errorf("ErrorNorm = %v, want 1", norm)
	}

	if got := tol.ErrorNorm(nil, nil, nil); got != 0 {
		t.Errorf("ErrorNorm of empty = %v, want 0", got)
	}
}

func TestTolerances_StepScale(t *testing.T) {
	tol := DefaultTolerances()
	if got := tol.StepScale(0, 4); got != tol.MaxScale {
		t.Errorf("StepScale(0) = %v, want max scale", got)
	}
	if got := tol.StepScale(1e12, 4); got != tol.MinScale {
		t.Errorf("StepScale(huge) = %v, want min scale", got)
	}
	if got := tol.StepScale(1, 4); math.Abs(got-tol.Safety) > 1e-12 {
		t.Errorf("StepScale(1) = %v, want safety factor", got)
	}
}

func TestParameterError(t *testing.T) {
	err := Positive("tau", -1)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}

	var pe *ParameterError
	if !errors.As(err, &pe) || pe.Name != "tau" {
		t.Errorf("expected ParameterError for tau, got %v", err)
	}

	if Positive("tau", 0.2) != nil {
		t.Error("expected nil for positive value")
	}
	if PositiveCount("n", 0) == nil {
		t.Error("expected error for zero count")
	}
}

func TestSimulationError(t *testing.T) {
	err := error(&SimulationError{From: 0.5, To: 0.75, Step: 12, Wrapped: ErrStepTooSmall})

	if !errors.Is(err, ErrSimulationFailure) {
		t.Error("SimulationError should match ErrSimulationFailure")
	}
	if !errors.Is(err, ErrStepTooSmall) {
		t.Error("SimulationError should match its cause")
	}
	if !strings.Contains(err.Error(), "[0.5, 0.75]") {
		t.Errorf("message should carry the interval: %q", err.Error())
	}
}

func TestResult_Component(t *testing.T) {
	r := &Result{States: []State{{1, 2}, {3, 4}}}
	got, err := r.Component(1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 2 || got[1] != 4 {
		t.Errorf("Component(1) = %v", got)
	}
	if _, err := r.Component(2); err == nil {
		t.Error("expected out of range error")
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		seen := make([]int32, n)
		var calls atomic.Int32
		ParallelFor(n, 16, func(start, end int) {
			calls.Add(1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d index %d visited %d times", n, i, c)
			}
		}
	}
}
