// Package noise applies detector noise to an intensity field and quantizes
// it to integer counts.
package noise

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/trplsim/internal/dynamo"
)

const (
	DefaultAmplitude       = 0.2
	DefaultCeiling   int64 = 10

	// seedStream selects the PCG stream; the seed alone picks the sequence.
	seedStream = 0x7472706c
)

type Options struct {
	// Amplitude is the noise standard deviation relative to the field maximum.
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	// Ceiling is the count assigned to the brightest noisy cell.
	Ceiling int64 `yaml:"ceiling" json:"ceiling"`
	Seed    int64 `yaml:"seed" json:"seed"`
}

func DefaultOptions() Options {
	return Options{Amplitude: DefaultAmplitude, Ceiling: DefaultCeiling}
}

func (o Options) Validate() error {
	if err := dynamo.Positive("noise.amplitude", o.Amplitude); err != nil {
		return err
	}
	if o.Ceiling <= 0 {
		return &dynamo.ParameterError{Name: "noise.ceiling", Value: float64(o.Ceiling), Reason: "must be positive"}
	}
	return nil
}

// Source is a real-valued matrix such as spectrum.Field.
type Source interface {
	Dims() (r, c int)
	At(i, j int) float64
}

// Quantize adds Gaussian noise with standard deviation Amplitude·max(field)
// to every cell, clamps negatives to zero, rescales so the brightest cell
// equals Ceiling and truncates toward zero. Cells are visited row by row,
// so a seed fixes the result for a given field shape.
func Quantize(field Source, opts Options) (*Counts, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows, cols := field.Dims()
	if rows == 0 || cols == 0 {
		return nil, &dynamo.ParameterError{Name: "field", Value: 0, Reason: "empty field"}
	}

	noisy := make([]float64, rows*cols)
	mx := math.Inf(-1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := field.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &dynamo.ParameterError{Name: "field", Value: v, Reason: "non-finite intensity"}
			}
			noisy[i*cols+j] = v
			mx = math.Max(mx, v)
		}
	}

	sigma := opts.Amplitude * math.Max(mx, 0)
	rng := rand.New(rand.NewPCG(uint64(opts.Seed), seedStream))

	noisyMax := 0.0
	for k, v := range noisy {
		v += sigma * rng.NormFloat64()
		if v < 0 {
			v = 0
		}
		noisy[k] = v
		noisyMax = math.Max(noisyMax, v)
	}

	counts := NewCounts(rows, cols)
	if noisyMax == 0 {
		return counts, nil
	}
	ceiling := float64(opts.Ceiling)
	for k, v := range noisy {
		counts.data[k] = int64(v / noisyMax * ceiling)
	}
	return counts, nil
}
