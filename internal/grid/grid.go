// Package grid builds the sampled time and wavelength axes of a dataset.
package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/trplsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultTimeCount       = 480
	DefaultWavelengthCount = 640
)

// Axis is a strictly increasing sequence of sample positions.
type Axis []float64

// Linspace returns n evenly spaced samples over [lo, hi]. Both ends are
// included and the last sample is exactly hi. A count of 1 yields [lo].
func Linspace(lo, hi float64, n int) (Axis, error) {
	if err := dynamo.PositiveCount("count", n); err != nil {
		return nil, err
	}
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return nil, &dynamo.ParameterError{Name: "span", Value: hi - lo, Reason: "bounds must be finite"}
	}
	if n == 1 {
		return Axis{lo}, nil
	}
	if hi <= lo {
		return nil, &dynamo.ParameterError{Name: "span", Value: hi - lo, Reason: "upper bound must exceed lower bound"}
	}

	axis := Axis(floats.Span(make([]float64, n), lo, hi))
	axis[n-1] = hi
	return axis, nil
}

// FromValues validates values as an axis and returns a copy.
func FromValues(values []float64) (Axis, error) {
	if len(values) == 0 {
		return nil, &dynamo.ParameterError{Name: "axis", Value: 0, Reason: "empty"}
	}
	for i := 1; i < len(values); i++ {
		if !(values[i] > values[i-1]) {
			return nil, &dynamo.ParameterError{Name: "axis", Value: values[i], Reason: fmt.Sprintf("not strictly increasing at index %d", i)}
		}
	}
	return append(Axis(nil), values...), nil
}

func (a Axis) Len() int { return len(a) }

func (a Axis) Min() float64 {
	if len(a) == 0 {
		return math.NaN()
	}
	return a[0]
}

func (a Axis) Max() float64 {
	if len(a) == 0 {
		return math.NaN()
	}
	return a[len(a)-1]
}

// Step is the mean sample spacing, 0 for fewer than two samples.
func (a Axis) Step() float64 {
	if len(a) < 2 {
		return 0
	}
	return (a[len(a)-1] - a[0]) / float64(len(a)-1)
}

// Index returns the index of the sample nearest to v.
func (a Axis) Index(v float64) int {
	if len(a) == 0 {
		return -1
	}
	i := sort.SearchFloat64s(a, v)
	switch {
	case i == 0:
		return 0
	case i == len(a):
		return len(a) - 1
	case v-a[i-1] <= a[i]-v:
		return i - 1
	default:
		return i
	}
}

func (a Axis) Values() []float64 {
	return append([]float64(nil), a...)
}

// Spec describes both axes of a dataset grid.
type Spec struct {
	TimeCount       int        `yaml:"time_count" json:"time_count"`
	TimeSpan        [2]float64 `yaml:"time_span" json:"time_span"`
	WavelengthCount int        `yaml:"wavelength_count" json:"wavelength_count"`
	WavelengthSpan  [2]float64 `yaml:"wavelength_span" json:"wavelength_span"`
}

// DefaultSpec is 480 samples over [0, 1] s and 640 samples over [200, 300] nm.
func DefaultSpec() Spec {
	return Spec{
		TimeCount:       DefaultTimeCount,
		TimeSpan:        [2]float64{0, 1},
		WavelengthCount: DefaultWavelengthCount,
		WavelengthSpan:  [2]float64{200, 300},
	}
}

// Rows is the number of dataset rows the grid produces.
func (s Spec) Rows() int { return s.TimeCount * s.WavelengthCount }

type Grid struct {
	Time       Axis
	Wavelength Axis
}

func Build(s Spec) (Grid, error) {
	t, err := Linspace(s.TimeSpan[0], s.TimeSpan[1], s.TimeCount)
	if err != nil {
		return Grid{}, fmt.Errorf("time axis: %w", err)
	}
	w, err := Linspace(s.WavelengthSpan[0], s.WavelengthSpan[1], s.WavelengthCount)
	if err != nil {
		return Grid{}, fmt.Errorf("wavelength axis: %w", err)
	}
	return Grid{Time: t, Wavelength: w}, nil
}
