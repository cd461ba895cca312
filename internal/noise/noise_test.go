package noise

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/spectrum"
)

func testField() *spectrum.Field {
	profile := make([]float64, 40)
	for i := range profile {
		x := (float64(i) - 15) / 4
		profile[i] = math.Exp(-x * x / 2)
	}
	traj := make([]float64, 60)
	for j := range traj {
		traj[j] = math.Exp(-float64(j) / 12)
	}
	return spectrum.Outer(profile, traj)
}

func TestQuantize_Invariants(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		opts := DefaultOptions()
		opts.Seed = seed
		c, err := Quantize(testField(), opts)
		if err != nil {
			t.Fatal(err)
		}

		r, cols := c.Dims()
		if r != 40 || cols != 60 {
			t.Fatalf("dims = %dx%d", r, cols)
		}
		if c.Max() != opts.Ceiling {
			t.Errorf("seed %d: max = %d, want %d", seed, c.Max(), opts.Ceiling)
		}
		for i := 0; i < r; i++ {
			for j := 0; j < cols; j++ {
				if v := c.At(i, j); v < 0 || v > opts.Ceiling {
					t.Fatalf("seed %d: count[%d][%d] = %d", seed, i, j, v)
				}
			}
		}
	}
}

func TestQuantize_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 42
	a, _ := Quantize(testField(), opts)
	b, _ := Quantize(testField(), opts)

	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if a.At(i, j) != b.At(i, j) {
				t.Fatalf("same seed differs at [%d][%d]", i, j)
			}
		}
	}

	opts.Seed = 43
	other, _ := Quantize(testField(), opts)
	if other.Sum() == a.Sum() {
		t.Errorf("different seeds produced the same sum %d", a.Sum())
	}
}

func TestQuantize_ZeroField(t *testing.T) {
	c, err := Quantize(spectrum.Outer([]float64{0, 0, 0}, []float64{0, 0}), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if c.Sum() != 0 || c.Max() != 0 {
		t.Errorf("expected all-zero counts, got sum %d", c.Sum())
	}
}

func TestQuantize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero amplitude", Options{Amplitude: 0, Ceiling: 10}},
		{"negative amplitude", Options{Amplitude: -0.2, Ceiling: 10}},
		{"zero ceiling", Options{Amplitude: 0.2, Ceiling: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Quantize(testField(), tt.opts); !errors.Is(err, dynamo.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}

	nan := spectrum.Outer([]float64{math.NaN()}, []float64{1})
	if _, err := Quantize(nan, DefaultOptions()); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected error for NaN field, got %v", err)
	}
}

func TestQuantize_NoiseFloorScalesWithAmplitude(t *testing.T) {
	quiet := DefaultOptions()
	quiet.Amplitude = 0.01
	quiet.Ceiling = 1000
	loud := quiet
	loud.Amplitude = 0.5

	q, _ := Quantize(testField(), quiet)
	l, _ := Quantize(testField(), loud)

	// The far tail of the trajectory is near zero signal; noise lifts it.
	tail := func(c *Counts) int64 {
		var s int64
		for i := 0; i < 40; i++ {
			s += c.At(i, 59)
		}
		return s
	}
	if tail(l) <= tail(q) {
		t.Errorf("louder noise did not raise the floor: %d <= %d", tail(l), tail(q))
	}
}
