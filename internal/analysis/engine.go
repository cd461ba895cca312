package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/san-kum/trplsim/internal/logging"
)

// Workflow names.
const (
	CarrierRelaxation = "carrier_relaxation"
	SpinRelaxation    = "spin_relaxation"
)

// Workflow runs one analysis.
type Workflow func(ctx context.Context, p Params, log *slog.Logger) (*Report, error)

// Report summarises a workflow run.
type Report struct {
	Notebook       string        `json:"notebook"`
	Rows           int           `json:"rows"`
	PeakWavelength float64       `json:"peak_wavelength,omitempty"`
	Fit            *DecayFit     `json:"fit,omitempty"`
	Times          []float64     `json:"-"`
	Decay          []float64     `json:"-"`
	Wavelengths    []float64     `json:"-"`
	Spectrum       []float64     `json:"-"`
	Polarization   []float64     `json:"-"`
	Files          []string      `json:"files"`
	Elapsed        time.Duration `json:"elapsed"`
}

type Engine struct {
	workflows map[string]Workflow
	logger    *slog.Logger
}

// NewEngine registers the built-in workflows. A nil logger discards.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	e := &Engine{
		workflows: make(map[string]Workflow),
		logger:    logger,
	}
	e.Register(CarrierRelaxation, runCarrier)
	e.Register(SpinRelaxation, runSpin)
	return e
}

func (e *Engine) Register(name string, w Workflow) {
	e.workflows[name] = w
}

func (e *Engine) Notebooks() []string {
	names := make([]string, 0, len(e.workflows))
	for name := range e.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute validates p and runs the named workflow. Workflow errors are
// returned unchanged apart from wrapping.
func (e *Engine) Execute(ctx context.Context, notebook string, p Params) (*Report, error) {
	w, ok := e.workflows[notebook]
	if !ok {
		return nil, fmt.Errorf("unknown notebook: %s (available: %v)", notebook, e.Notebooks())
	}
	if err := p.Validate(notebook); err != nil {
		return nil, err
	}

	log := e.logger.With("notebook", notebook)
	start := time.Now()
	report, err := w(ctx, p, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", notebook, err)
	}
	report.Notebook = notebook
	report.Elapsed = time.Since(start)

	log.Info("notebook executed", "rows", report.Rows, "files", len(report.Files), "elapsed", report.Elapsed)
	return report, nil
}
