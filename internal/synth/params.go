package synth

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/grid"
	"github.com/san-kum/trplsim/internal/integrators"
	"github.com/san-kum/trplsim/internal/logging"
	"github.com/san-kum/trplsim/internal/noise"
	"github.com/san-kum/trplsim/internal/physics"
	"github.com/san-kum/trplsim/internal/spectrum"
)

// Reference fixture values.
const (
	DefaultLambda0 = 230.0
	DefaultSigma   = 5.0
	DefaultXi      = 0.05
	DefaultTau     = 0.2
)

// Params fully determines a generated dataset.
type Params struct {
	Lambda0 float64 `yaml:"lambda0" json:"lambda0"` // emission center, nm
	Sigma   float64 `yaml:"sigma" json:"sigma"`     // Gaussian width, nm
	Xi      float64 `yaml:"xi" json:"xi"`           // exponential tail rate, 1/nm
	Tau     float64 `yaml:"tau" json:"tau"`         // relaxation time, s
	Seed    int64   `yaml:"seed" json:"seed"`

	Grid       grid.Spec             `yaml:"grid" json:"grid"`
	Pulse      physics.GaussianPulse `yaml:"pulse" json:"pulse"`
	Noise      noise.Options         `yaml:"noise" json:"noise"`
	Tolerances dynamo.Tolerances     `yaml:"tolerances" json:"tolerances"`
	Integrator string                `yaml:"integrator" json:"integrator"`

	Logger *slog.Logger `yaml:"-" json:"-"`
}

func DefaultParams() Params {
	return Params{
		Lambda0:    DefaultLambda0,
		Sigma:      DefaultSigma,
		Xi:         DefaultXi,
		Tau:        DefaultTau,
		Grid:       grid.DefaultSpec(),
		Pulse:      physics.DefaultPulse(),
		Noise:      noise.DefaultOptions(),
		Tolerances: dynamo.DefaultTolerances(),
		Integrator: integrators.Default,
	}
}

// Validate checks every parameter before any work is done.
func (p Params) Validate() error {
	if _, err := spectrum.NewEMG(p.Lambda0, p.Sigma, p.Xi); err != nil {
		return err
	}
	if err := dynamo.Positive("tau", p.Tau); err != nil {
		return err
	}
	if err := dynamo.PositiveCount("grid.time_count", p.Grid.TimeCount); err != nil {
		return err
	}
	if err := dynamo.PositiveCount("grid.wavelength_count", p.Grid.WavelengthCount); err != nil {
		return err
	}
	if err := p.Pulse.Validate(); err != nil {
		return err
	}
	if err := p.Noise.Validate(); err != nil {
		return err
	}
	if err := p.Tolerances.Validate(); err != nil {
		return err
	}
	if _, err := integrators.New(p.Integrator, p.Tolerances); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidParameter, err)
	}
	return nil
}

func (p Params) logger() *slog.Logger {
	return logging.OrDiscard(p.Logger)
}
