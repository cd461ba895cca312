package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for generation and simulation.
var (
	// ErrInvalidParameter indicates a non-positive count, width or time constant.
	ErrInvalidParameter = errors.New("dynamo: invalid parameter")

	// ErrSimulationFailure indicates the integrator could not produce a trajectory.
	ErrSimulationFailure = errors.New("dynamo: simulation failure")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNewtonDiverged indicates the implicit stage equations did not converge.
	ErrNewtonDiverged = errors.New("dynamo: newton iteration did not converge")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrTooManySteps indicates the step budget was exhausted.
	ErrTooManySteps = errors.New("dynamo: step budget exhausted")

	// ErrEncoding indicates a dataset payload that cannot be encoded or decoded.
	ErrEncoding = errors.New("dynamo: dataset encoding failure")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// ParameterError names the offending parameter.
type ParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("dynamo: invalid parameter %s=%g: %s", e.Name, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// Positive returns a *ParameterError unless v is finite and > 0.
func Positive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ParameterError{Name: name, Value: v, Reason: "must be finite"}
	}
	if v <= 0 {
		return &ParameterError{Name: name, Value: v, Reason: "must be positive"}
	}
	return nil
}

// PositiveCount is Positive for integer counts.
func PositiveCount(name string, n int) error {
	if n <= 0 {
		return &ParameterError{Name: name, Value: float64(n), Reason: "count must be positive"}
	}
	return nil
}

// SimulationError reports the time interval on which integration failed.
// It matches both ErrSimulationFailure and the wrapped cause.
type SimulationError struct {
	From    float64
	To      float64
	Step    int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("dynamo: simulation failed on [%.6g, %.6g] at step %d: %v", e.From, e.To, e.Step, e.Wrapped)
}

func (e *SimulationError) Unwrap() []error {
	return []error{ErrSimulationFailure, e.Wrapped}
}
