package analysis

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/trplsim/internal/grid"
	"github.com/san-kum/trplsim/internal/optim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData means fewer than three usable points follow the peak.
	ErrInsufficientData = errors.New("analysis: not enough points to fit")
	// ErrNoDecay means the signal does not decrease after its peak.
	ErrNoDecay = errors.New("analysis: signal does not decay")
)

const (
	minFitPoints  = 3
	refineSamples = 81
)

// DecayFit is A·exp(-(t-Start)/Tau) fitted to the signal after its peak.
type DecayFit struct {
	Amplitude float64 `json:"amplitude"`
	Tau       float64 `json:"tau"`
	Start     float64 `json:"start"`
	Points    int     `json:"points"`
	Residual  float64 `json:"residual"`
}

func (f *DecayFit) At(t float64) float64 {
	if t < f.Start {
		return math.NaN()
	}
	return f.Amplitude * math.Exp(-(t-f.Start)/f.Tau)
}

// FitDecay seeds Tau with a log-linear regression over the positive post-
// peak samples, then refines it by grid search on the squared residual
// with the amplitude solved in closed form for each Tau.
func FitDecay(ctx context.Context, times, values []float64) (*DecayFit, error) {
	if len(times) != len(values) || len(values) == 0 {
		return nil, ErrInsufficientData
	}
	peak := floats.MaxIdx(values)
	start := times[peak]

	var xs, ys, logs []float64
	for i := peak; i < len(values); i++ {
		xs = append(xs, times[i]-start)
		ys = append(ys, values[i])
	}
	var lx []float64
	for i, y := range ys {
		if y > 0 {
			lx = append(lx, xs[i])
			logs = append(logs, math.Log(y))
		}
	}
	if len(lx) < minFitPoints {
		return nil, ErrInsufficientData
	}

	_, slope := stat.LinearRegression(lx, logs, nil, false)
	if !(slope < 0) {
		return nil, ErrNoDecay
	}
	seed := -1 / slope

	residual := func(tau float64) (float64, float64) {
		var num, den float64
		for i, x := range xs {
			e := math.Exp(-x / tau)
			num += ys[i] * e
			den += e * e
		}
		amp := num / den
		var r float64
		for i, x := range xs {
			d := ys[i] - amp*math.Exp(-x/tau)
			r += d * d
		}
		return amp, r
	}

	tau := seed
	for _, span := range []float64{4, 1.1} {
		candidates, err := grid.Linspace(tau/span, tau*span, refineSamples)
		if err != nil {
			return nil, err
		}
		search, err := optim.NewGridSearch([]string{"tau"}, [][]float64{candidates})
		if err != nil {
			return nil, err
		}
		best, _, err := search.Search(ctx, func(p map[string]float64) (float64, error) {
			_, r := residual(p["tau"])
			return r, nil
		})
		if err != nil {
			return nil, err
		}
		tau = best["tau"]
	}

	amp, r := residual(tau)
	return &DecayFit{Amplitude: amp, Tau: tau, Start: start, Points: len(xs), Residual: r}, nil
}
