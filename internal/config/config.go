package config

import (
	"fmt"
	"io"
	"os"

	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/grid"
	"github.com/san-kum/trplsim/internal/integrators"
	"github.com/san-kum/trplsim/internal/noise"
	"github.com/san-kum/trplsim/internal/physics"
	"github.com/san-kum/trplsim/internal/synth"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Lambda0 float64               `yaml:"lambda0"`
	Sigma   float64               `yaml:"sigma"`
	Xi      float64               `yaml:"xi"`
	Tau     float64               `yaml:"tau"`
	Seed    int64                 `yaml:"seed"`
	Grid    grid.Spec             `yaml:"grid"`
	Pulse   physics.GaussianPulse `yaml:"pulse"`
	Noise   NoiseConfig           `yaml:"noise"`
	Solver  SolverConfig          `yaml:"solver"`
	Output  OutputConfig          `yaml:"output"`
}

type NoiseConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Ceiling   int64   `yaml:"ceiling"`
}

// SolverConfig exposes the user-facing subset of dynamo.Tolerances.
type SolverConfig struct {
	Name        string  `yaml:"name"`
	RelTol      float64 `yaml:"rel_tol"`
	AbsTol      float64 `yaml:"abs_tol"`
	InitialStep float64 `yaml:"initial_step"`
	MinStep     float64 `yaml:"min_step"`
	MaxStep     float64 `yaml:"max_step"`
	MaxSteps    int     `yaml:"max_steps"`
}

type OutputConfig struct {
	Codec    string `yaml:"codec"`
	Compress bool   `yaml:"compress"`
}

func DefaultConfig() *Config {
	p := synth.DefaultParams()
	return &Config{
		Lambda0: p.Lambda0,
		Sigma:   p.Sigma,
		Xi:      p.Xi,
		Tau:     p.Tau,
		Seed:    p.Seed,
		Grid:    p.Grid,
		Pulse:   p.Pulse,
		Noise: NoiseConfig{
			Amplitude: p.Noise.Amplitude,
			Ceiling:   p.Noise.Ceiling,
		},
		Solver: SolverConfig{
			Name:        p.Integrator,
			RelTol:      p.Tolerances.RelTol,
			AbsTol:      p.Tolerances.AbsTol,
			InitialStep: p.Tolerances.InitialStep,
			MinStep:     p.Tolerances.MinStep,
			MaxStep:     p.Tolerances.MaxStep,
			MaxSteps:    p.Tolerances.MaxSteps,
		},
		Output: OutputConfig{Codec: "arrow"},
	}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep
// their default values.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file on top of base, which is modified in place.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Write encodes cfg as YAML to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Params converts the configuration into generator parameters. Tolerance
// fields without a config key keep their defaults.
func (c *Config) Params() synth.Params {
	tol := dynamo.DefaultTolerances()
	tol.RelTol = c.Solver.RelTol
	tol.AbsTol = c.Solver.AbsTol
	tol.InitialStep = c.Solver.InitialStep
	tol.MinStep = c.Solver.MinStep
	tol.MaxStep = c.Solver.MaxStep
	tol.MaxSteps = c.Solver.MaxSteps

	name := c.Solver.Name
	if name == "" {
		name = integrators.Default
	}

	return synth.Params{
		Lambda0: c.Lambda0,
		Sigma:   c.Sigma,
		Xi:      c.Xi,
		Tau:     c.Tau,
		Seed:    c.Seed,
		Grid:    c.Grid,
		Pulse:   c.Pulse,
		Noise: noise.Options{
			Amplitude: c.Noise.Amplitude,
			Ceiling:   c.Noise.Ceiling,
			Seed:      c.Seed,
		},
		Tolerances: tol,
		Integrator: name,
	}
}

// Codec resolves the output section to a dataset codec.
func (c *Config) Codec() (codec.Codec, error) {
	name := c.Output.Codec
	if c.Output.Compress {
		name += "+xz"
	}
	return codec.ByName(name)
}

// Validate checks everything Generate would check plus the output codec.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if _, err := c.Codec(); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidParameter, err)
	}
	return nil
}

// ParamNames lists the keys accepted by Set.
var ParamNames = []string{"lambda0", "sigma", "xi", "tau", "seed", "noise", "ceiling"}

// Set assigns one scalar parameter by name.
func (c *Config) Set(name string, value float64) error {
	switch name {
	case "lambda0":
		c.Lambda0 = value
	case "sigma":
		c.Sigma = value
	case "xi":
		c.Xi = value
	case "tau":
		c.Tau = value
	case "seed":
		c.Seed = int64(value)
	case "noise":
		c.Noise.Amplitude = value
	case "ceiling":
		c.Noise.Ceiling = int64(value)
	default:
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", dynamo.ErrInvalidParameter, name, ParamNames)
	}
	return nil
}
