// Package automation runs scripted and repeated dataset generations:
// YAML scenarios, one-parameter sweeps and seed Monte Carlo studies.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"

	"github.com/san-kum/trplsim/internal/analysis"
	"github.com/san-kum/trplsim/internal/config"
	"github.com/san-kum/trplsim/internal/logging"
	"github.com/san-kum/trplsim/internal/synth"
	"github.com/san-kum/trplsim/internal/trpl"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted generation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single generation in a scenario. Preset, then Config,
// then Params are applied on top of the defaults.
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

// StepResult is the output of one scenario step.
type StepResult struct {
	Step    ScenarioStep
	Params  synth.Params
	Dataset *trpl.Dataset
	Trace   *synth.Trace
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Resolve builds the configuration of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
		}
	}
	if s.Config != "" {
		var err error
		if cfg, err = config.LoadOver(s.Config, cfg); err != nil {
			return nil, err
		}
	}
	for k, v := range s.Params {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. Results of completed steps are
// returned together with the error of a failed one.
func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]StepResult, error) {
	logger = logging.OrDiscard(logger)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("running step", "step", i+1, "of", len(scenario.Steps), "name", step.Name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		p := cfg.Params()
		p.Logger = logger
		d, trace, err := synth.GenerateTrace(ctx, p)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Params: p, Dataset: d, Trace: trace})
	}

	return results, nil
}

// ParameterSweep generates datasets across a range of one parameter
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// Summary condenses one generated dataset.
type Summary struct {
	Sum            int64
	Max            int64
	PeakWavelength float64
	// FitTau is the lifetime recovered from the decay curve, NaN when the
	// fit failed.
	FitTau float64
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Summary
}

func summarize(ctx context.Context, d *trpl.Dataset) Summary {
	s := Summary{Sum: d.Sum(), Max: d.Max(), PeakWavelength: d.PeakWavelength(), FitTau: math.NaN()}
	if fit, err := analysis.FitDecay(ctx, d.TimeAxis(), d.DecayCurve()); err == nil {
		s.FitTau = fit.Tau
	}
	return s
}

// generateChunked generates params a few at a time so only one chunk of
// datasets is held in memory, handing each dataset to fn in input order.
func generateChunked(ctx context.Context, params []synth.Params, fn func(i int, d *trpl.Dataset)) error {
	chunk := runtime.NumCPU()
	for lo := 0; lo < len(params); lo += chunk {
		hi := min(lo+chunk, len(params))
		datasets, err := synth.GenerateBatch(ctx, params[lo:hi])
		if err != nil {
			return err
		}
		for k, d := range datasets {
			fn(lo+k, d)
		}
	}
	return nil
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	logger = logging.OrDiscard(logger)
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	values := make([]float64, sweep.NumSteps)
	params := make([]synth.Params, sweep.NumSteps)
	for i := range values {
		values[i] = sweep.ParamMin
		if sweep.NumSteps > 1 {
			values[i] += float64(i) * (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
		}

		cfg := *base
		if err := cfg.Set(sweep.ParamName, values[i]); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, values[i], err)
		}
		params[i] = cfg.Params()
	}

	results := make([]SweepResult, len(params))
	err := generateChunked(ctx, params, func(i int, d *trpl.Dataset) {
		results[i] = SweepResult{ParamValue: values[i], Summary: summarize(ctx, d)}
		logger.Info("sweep point", "param", sweep.ParamName, "value", values[i], "fit_tau", results[i].FitTau)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig repeats one configuration with different noise seeds
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	Seed      int64 // first seed; trial i uses Seed+i
}

// MonteCarloResult holds the summary of one trial
type MonteCarloResult struct {
	TrialID int
	Seed    int64
	Summary
}

// RunMonteCarlo executes NumTrials generations that differ only in seed.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, logger *slog.Logger) ([]MonteCarloResult, error) {
	logger = logging.OrDiscard(logger)
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", cfg.NumTrials)
	}
	base := cfg.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	params := make([]synth.Params, cfg.NumTrials)
	for i := range params {
		trial := *base
		trial.Seed = cfg.Seed + int64(i)
		params[i] = trial.Params()
	}

	results := make([]MonteCarloResult, len(params))
	err := generateChunked(ctx, params, func(i int, d *trpl.Dataset) {
		results[i] = MonteCarloResult{TrialID: i, Seed: params[i].Seed, Summary: summarize(ctx, d)}
		if (i+1)%10 == 0 {
			logger.Info("monte carlo progress", "done", i+1, "of", cfg.NumTrials)
		}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats returns the mean and standard deviation of the fitted
// lifetimes, and how many trials could not be fitted.
func MonteCarloStats(results []MonteCarloResult) (mean, std float64, failed int) {
	taus := make([]float64, 0, len(results))
	for _, r := range results {
		if math.IsNaN(r.FitTau) {
			failed++
			continue
		}
		taus = append(taus, r.FitTau)
	}
	if len(taus) == 0 {
		return math.NaN(), math.NaN(), failed
	}
	if len(taus) == 1 {
		return taus[0], 0, failed
	}
	mean, std = stat.MeanStdDev(taus, nil)
	return mean, std, failed
}
