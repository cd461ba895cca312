package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/trplsim/internal/trpl"
)

// Polarization is (RR-RL)/(RR+RL) per sample, 0 where both are 0.
func Polarization(rr, rl []float64) []float64 {
	out := make([]float64, len(rr))
	for i := range out {
		if den := rr[i] + rl[i]; den != 0 {
			out[i] = (rr[i] - rl[i]) / den
		}
	}
	return out
}

func runSpin(ctx context.Context, p Params, log *slog.Logger) (*Report, error) {
	rr, err := load(p.RR, p)
	if err != nil {
		return nil, fmt.Errorf("RR: %w", err)
	}
	rl, err := load(p.RL, p)
	if err != nil {
		return nil, fmt.Errorf("RL: %w", err)
	}
	if err := sameTimes(rr, rl); err != nil {
		return nil, err
	}
	log.Debug("channels loaded", "rr", p.RR, "rl", p.RL, "rows", rr.Len())

	rrDecay, rlDecay := rr.DecayCurve(), rl.DecayCurve()
	report := &Report{
		Rows:         rr.Len(),
		Times:        rr.TimeAxis(),
		Decay:        rrDecay,
		Polarization: Polarization(rrDecay, rlDecay),
	}

	if report.Rows > 0 {
		if report.Fit, err = fitOrSkip(ctx, log, report.Times, report.Polarization); err != nil {
			return nil, err
		}
	}
	if report.Fit != nil {
		log.Info("spin relaxation", "tau", report.Fit.Tau, "points", report.Fit.Points)
	}

	report.Files, err = dump(p, table{
		name:    Stem(p.RR) + "_spin_relaxation.csv",
		header:  []string{"time", "RR", "RL", "polarization"},
		columns: [][]float64{report.Times, rrDecay, rlDecay, report.Polarization},
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func sameTimes(a, b *trpl.Dataset) error {
	ta, tb := a.TimeAxis(), b.TimeAxis()
	if len(ta) != len(tb) {
		return fmt.Errorf("RR and RL have %d and %d time samples", len(ta), len(tb))
	}
	for i := range ta {
		if ta[i] != tb[i] {
			return fmt.Errorf("RR and RL time axes differ at sample %d", i)
		}
	}
	return nil
}
