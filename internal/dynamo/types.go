package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// System is an ODE right-hand side dx/dt = f(t, x).
type System interface {
	Derive(t float64, x State) State
	Dim() int
}

// Jacobian is implemented by systems that can supply df/dx analytically.
// Implicit integrators fall back to finite differences otherwise.
type Jacobian interface {
	Jacobian(t float64, x State) *mat.Dense
}

type Integrator interface {
	Step(sys System, t float64, x State, h float64) (State, error)
}

// Ordered reports the order of accuracy of an integrator. The simulator
// uses it to scale step-doubling error estimates.
type Ordered interface {
	Order() int
}

// AdaptiveIntegrator controls its own step size. StepAdaptive retries
// internally until a step is accepted and returns the new state, the step
// actually taken and the suggested next step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, t float64, x State, h float64, tol Tolerances) (State, float64, float64, error)
}

type Metric interface {
	Name() string
	Observe(t float64, x State)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(t float64, x State)
}

// Tolerances are the solver settings. Nothing is hidden behind integrator
// defaults: every knob used during a run lives here.
type Tolerances struct {
	RelTol        float64 `yaml:"rel_tol" json:"rel_tol"`
	AbsTol        float64 `yaml:"abs_tol" json:"abs_tol"`
	InitialStep   float64 `yaml:"initial_step" json:"initial_step"`
	MinStep       float64 `yaml:"min_step" json:"min_step"`
	MaxStep       float64 `yaml:"max_step" json:"max_step"` // 0 means bounded only by the sample spacing
	MaxSteps      int     `yaml:"max_steps" json:"max_steps"`
	MaxNewtonIter int     `yaml:"max_newton_iter" json:"max_newton_iter"`
	NewtonTol     float64 `yaml:"newton_tol" json:"newton_tol"`
	Safety        float64 `yaml:"safety" json:"safety"`
	MinScale      float64 `yaml:"min_scale" json:"min_scale"`
	MaxScale      float64 `yaml:"max_scale" json:"max_scale"`
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		RelTol:        1e-6,
		AbsTol:        1e-9,
		InitialStep:   1e-4,
		MinStep:       1e-12,
		MaxStep:       0,
		MaxSteps:      100000,
		MaxNewtonIter: 7,
		NewtonTol:     1e-3,
		Safety:        0.9,
		MinScale:      0.2,
		MaxScale:      5.0,
	}
}

func (t Tolerances) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"rel_tol", t.RelTol},
		{"abs_tol", t.AbsTol},
		{"initial_step", t.InitialStep},
		{"min_step", t.MinStep},
		{"newton_tol", t.NewtonTol},
		{"safety", t.Safety},
		{"min_scale", t.MinScale},
		{"max_scale", t.MaxScale},
	}
	for _, c := range checks {
		if err := Positive(c.name, c.value); err != nil {
			return err
		}
	}
	if t.MaxStep < 0 {
		return &ParameterError{Name: "max_step", Value: t.MaxStep, Reason: "must not be negative"}
	}
	if t.MaxSteps <= 0 {
		return &ParameterError{Name: "max_steps", Value: float64(t.MaxSteps), Reason: "must be positive"}
	}
	if t.MaxNewtonIter <= 0 {
		return &ParameterError{Name: "max_newton_iter", Value: float64(t.MaxNewtonIter), Reason: "must be positive"}
	}
	if t.MinScale >= 1 || t.MaxScale <= 1 {
		return &ParameterError{Name: "min_scale/max_scale", Value: t.MinScale, Reason: "need min_scale < 1 < max_scale"}
	}
	return nil
}

// ErrorNorm is the weighted RMS norm of err, scaled by AbsTol + RelTol*max(|a|, |b|).
// A value <= 1 means the error is within tolerance.
func (t Tolerances) ErrorNorm(a, b, err State) float64 {
	if len(err) == 0 {
		return 0
	}
	sum := 0.0
	for i := range err {
		sc := t.AbsTol + t.RelTol*math.Max(math.Abs(a[i]), math.Abs(b[i]))
		r := err[i] / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(err)))
}

// StepScale converts an error norm into the factor for the next step,
// clamped to [MinScale, MaxScale].
func (t Tolerances) StepScale(errNorm float64, order int) float64 {
	if errNorm == 0 {
		return t.MaxScale
	}
	scale := t.Safety * math.Pow(errNorm, -1.0/float64(order+1))
	return math.Min(t.MaxScale, math.Max(t.MinScale, scale))
}

type Result struct {
	Times         []float64
	States        []State
	Metrics       map[string]float64
	StepsTaken    int
	StepsRejected int
}

// Component returns the i-th state component of every recorded sample.
func (r *Result) Component(i int) ([]float64, error) {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < 0 || i >= len(s) {
			return nil, fmt.Errorf("component %d out of range for state of dim %d", i, len(s))
		}
		out[k] = s[i]
	}
	return out, nil
}
