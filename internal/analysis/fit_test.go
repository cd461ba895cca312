package analysis

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestFitDecay_RecoversLifetime(t *testing.T) {
	tests := []struct {
		name string
		tau  float64
		amp  float64
	}{
		{"reference", 0.2, 5},
		{"slower", 0.225, 900},
		{"fast", 0.02, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 480
			times := make([]float64, n)
			values := make([]float64, n)
			for i := range times {
				times[i] = float64(i) / float64(n-1)
			}
			onset := times[n/5]
			for i := n / 5; i < n; i++ {
				values[i] = tt.amp * math.Exp(-(times[i]-onset)/tt.tau)
			}

			fit, err := FitDecay(context.Background(), times, values)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(fit.Tau-tt.tau)/tt.tau > 0.01 {
				t.Errorf("tau = %v, want %v", fit.Tau, tt.tau)
			}
			if math.Abs(fit.Amplitude-tt.amp)/tt.amp > 0.02 {
				t.Errorf("amplitude = %v, want %v", fit.Amplitude, tt.amp)
			}
			if !math.IsNaN(fit.At(0)) {
				t.Error("fit should be undefined before the peak")
			}
		})
	}
}

func TestFitDecay_Rejects(t *testing.T) {
	ctx := context.Background()

	if _, err := FitDecay(ctx, nil, nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := FitDecay(ctx, []float64{0, 1, 2}, []float64{0, 0, 5}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for a peak at the end, got %v", err)
	}
	if _, err := FitDecay(ctx, []float64{0, 1, 2, 3}, []float64{4, 1, 2, 4}); !errors.Is(err, ErrNoDecay) {
		t.Errorf("expected ErrNoDecay, got %v", err)
	}
}

func TestPolarization(t *testing.T) {
	got := Polarization([]float64{3, 0, 1}, []float64{1, 0, 1})
	want := []float64{0.5, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("polarization[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParams(t *testing.T) {
	var p Params
	if !p.Dump() {
		t.Error("unset dump_csv should mean true")
	}
	off := false
	p.DumpCSV = &off
	if p.Dump() {
		t.Error("dump_csv=false ignored")
	}

	p.WavelengthRange = &[2]float64{1000, 920}
	lo, hi, ok := p.Window()
	if !ok || lo != 920 || hi != 1000 {
		t.Errorf("window = %v %v %v", lo, hi, ok)
	}

	if err := p.Validate(CarrierRelaxation); !errors.Is(err, ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter, got %v", err)
	}
	p.RR = "a"
	if err := p.Validate(SpinRelaxation); !errors.Is(err, ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter without RL, got %v", err)
	}

	if got := Stem("/tmp/data/dummy_data.arrow.xz"); got != "dummy_data" {
		t.Errorf("Stem = %q", got)
	}
}
