package analysis

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/trpl"
)

func load(path string, p Params) (*trpl.Dataset, error) {
	d, err := codec.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if lo, hi, ok := p.Window(); ok {
		d = d.FilterWavelength(lo, hi)
	}
	return d, nil
}

// fitOrSkip treats a signal that cannot be fitted as "no fit".
func fitOrSkip(ctx context.Context, log *slog.Logger, times, values []float64) (*DecayFit, error) {
	fit, err := FitDecay(ctx, times, values)
	if errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrNoDecay) {
		log.Debug("decay fit skipped", "reason", err)
		return nil, nil
	}
	return fit, err
}

func runCarrier(ctx context.Context, p Params, log *slog.Logger) (*Report, error) {
	d, err := load(p.File, p)
	if err != nil {
		return nil, err
	}
	log.Debug("dataset loaded", "file", p.File, "rows", d.Len())

	report := &Report{
		Rows:           d.Len(),
		Times:          d.TimeAxis(),
		Decay:          d.DecayCurve(),
		Wavelengths:    d.WavelengthAxis(),
		Spectrum:       d.Spectrum(),
		PeakWavelength: d.PeakWavelength(),
	}
	if math.IsNaN(report.PeakWavelength) {
		report.PeakWavelength = 0
	}

	if report.Rows > 0 {
		if report.Fit, err = fitOrSkip(ctx, log, report.Times, report.Decay); err != nil {
			return nil, err
		}
	}
	if report.Fit != nil {
		log.Info("carrier lifetime", "tau", report.Fit.Tau, "points", report.Fit.Points)
	}

	fitted := make([]float64, len(report.Times))
	for i, t := range report.Times {
		fitted[i] = math.NaN()
		if report.Fit != nil {
			fitted[i] = report.Fit.At(t)
		}
	}

	stem := Stem(p.File)
	report.Files, err = dump(p,
		table{
			name:    stem + "_time_resolved.csv",
			header:  []string{"time", "intensity", "fit"},
			columns: [][]float64{report.Times, report.Decay, fitted},
		},
		table{
			name:    stem + "_wavelength_resolved.csv",
			header:  []string{"wavelength", "intensity"},
			columns: [][]float64{report.Wavelengths, report.Spectrum},
		},
	)
	if err != nil {
		return nil, err
	}
	return report, nil
}
