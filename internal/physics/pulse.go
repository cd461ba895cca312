package physics

import (
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
)

const (
	DefaultPulseOnset = 0.2
	DefaultPulseWidth = 1e-2
)

// Drive is an external excitation I(t).
type Drive interface {
	At(t float64) float64
}

// DriveFunc adapts a plain function to Drive.
type DriveFunc func(t float64) float64

func (f DriveFunc) At(t float64) float64 { return f(t) }

// GaussianPulse is I(t) = A·exp(-((t-t0)/w)²).
type GaussianPulse struct {
	Onset     float64 `yaml:"onset" json:"onset"`
	Width     float64 `yaml:"width" json:"width"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
}

func DefaultPulse() GaussianPulse {
	return GaussianPulse{Onset: DefaultPulseOnset, Width: DefaultPulseWidth, Amplitude: 1}
}

func (p GaussianPulse) Validate() error {
	if err := dynamo.Positive("pulse.width", p.Width); err != nil {
		return err
	}
	if math.IsNaN(p.Onset) || math.IsInf(p.Onset, 0) {
		return &dynamo.ParameterError{Name: "pulse.onset", Value: p.Onset, Reason: "must be finite"}
	}
	if math.IsNaN(p.Amplitude) || math.IsInf(p.Amplitude, 0) || p.Amplitude < 0 {
		return &dynamo.ParameterError{Name: "pulse.amplitude", Value: p.Amplitude, Reason: "must be finite and non-negative"}
	}
	return nil
}

func (p GaussianPulse) At(t float64) float64 {
	d := (t - p.Onset) / p.Width
	return p.Amplitude * math.Exp(-d*d)
}
