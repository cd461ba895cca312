package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/logging"
)

// Simulator integrates a System onto a fixed set of sample times. Between
// consecutive samples it takes as many adaptive sub-steps as the
// tolerances require; the last sub-step is clipped to land on the sample.
type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	tol        dynamo.Tolerances
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

func New(sys dynamo.System, integrator dynamo.Integrator, tol dynamo.Tolerances) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		tol:        tol,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     logging.Discard(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run integrates from times[0] with initial state x0 and records the state
// at every entry of times. No partial result is returned on failure.
func (s *Simulator) Run(ctx context.Context, times []float64, x0 dynamo.State) (*dynamo.Result, error) {
	if err := s.validate(times, x0); err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		Times:   make([]float64, 0, len(times)),
		States:  make([]dynamo.State, 0, len(times)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	h := s.tol.InitialStep
	s.record(result, times[0], x)

	for k := 1; k < len(times); k++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t, target := times[k-1], times[k]
		for t < target {
			if result.StepsTaken >= s.tol.MaxSteps {
				return nil, &dynamo.SimulationError{From: times[k-1], To: target, Step: result.StepsTaken, Wrapped: dynamo.ErrTooManySteps}
			}

			step := h
			if s.tol.MaxStep > 0 && step > s.tol.MaxStep {
				step = s.tol.MaxStep
			}
			clipped := false
			if t+step >= target || target-(t+step) < s.tol.MinStep {
				step = target - t
				clipped = true
			}

			next, taken, suggested, rejected, err := s.advance(t, x, step)
			result.StepsRejected += rejected
			if err != nil {
				return nil, &dynamo.SimulationError{From: times[k-1], To: target, Step: result.StepsTaken, Wrapped: err}
			}

			x = next
			if clipped && taken == step {
				t = target
				if suggested < h {
					h = suggested
				}
			} else {
				t += taken
				h = suggested
			}
			result.StepsTaken++
		}

		s.record(result, target, x)
		s.logger.Log(ctx, logging.LevelTrace, "sample", "t", target, "x", x[0], "steps", result.StepsTaken)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("simulation complete",
		"samples", len(result.Times),
		"steps", result.StepsTaken,
		"rejected", result.StepsRejected)

	return result, nil
}

func (s *Simulator) validate(times []float64, x0 dynamo.State) error {
	if err := s.tol.Validate(); err != nil {
		return err
	}
	if len(times) == 0 {
		return &dynamo.ParameterError{Name: "times", Value: 0, Reason: "need at least one sample"}
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return &dynamo.ParameterError{Name: "times", Value: times[i], Reason: fmt.Sprintf("not strictly increasing at index %d", i)}
		}
	}
	if len(x0) != s.sys.Dim() {
		return fmt.Errorf("%w: state has %d components, system expects %d", dynamo.ErrDimensionMismatch, len(x0), s.sys.Dim())
	}
	if !x0.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

func (s *Simulator) record(result *dynamo.Result, t float64, x dynamo.State) {
	result.Times = append(result.Times, t)
	result.States = append(result.States, x.Clone())

	for _, m := range s.metrics {
		m.Observe(t, x)
	}
	for _, obs := range s.observers {
		obs.OnSample(t, x)
	}
}

// advance takes one accepted step of at most h. Integrators without their
// own error control are driven by step doubling: one step of h against two
// of h/2, with the difference scaled by 2^p - 1.
func (s *Simulator) advance(t float64, x dynamo.State, h float64) (dynamo.State, float64, float64, int, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		next, taken, suggested, err := adaptive.StepAdaptive(s.sys, t, x, h, s.tol)
		return next, taken, suggested, 0, err
	}

	order := 4
	if o, ok := s.integrator.(dynamo.Ordered); ok {
		order = o.Order()
	}
	denom := math.Pow(2, float64(order)) - 1

	rejected := 0
	for {
		if rejected > 0 && h < s.tol.MinStep {
			return nil, h, h, rejected, dynamo.ErrStepTooSmall
		}

		full, err := s.integrator.Step(s.sys, t, x, h)
		var half, two dynamo.State
		if err == nil {
			half, err = s.integrator.Step(s.sys, t, x, h/2)
		}
		if err == nil {
			two, err = s.integrator.Step(s.sys, t+h/2, half, h/2)
		}
		if err != nil {
			if !errors.Is(err, dynamo.ErrNewtonDiverged) && !errors.Is(err, dynamo.ErrInvalidState) {
				return nil, h, h, rejected, err
			}
			rejected++
			h *= s.tol.MinScale
			continue
		}

		errNorm := s.tol.ErrorNorm(x, two, two.Sub(full).Scale(1/denom))
		if errNorm <= 1 {
			return two, h, h * s.tol.StepScale(errNorm, order), rejected, nil
		}

		rejected++
		h *= s.tol.StepScale(errNorm, order)
	}
}
