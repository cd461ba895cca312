package spectrum

import (
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Field is a wavelength by time intensity matrix.
type Field struct {
	m *mat.Dense
}

// Convolve builds field[i][j] = shape(wavelength[i]) × trajectory[j].
func Convolve(wavelength []float64, shape LineShape, trajectory []float64) (*Field, error) {
	if len(wavelength) == 0 {
		return nil, &dynamo.ParameterError{Name: "wavelength", Value: 0, Reason: "empty axis"}
	}
	if len(trajectory) == 0 {
		return nil, &dynamo.ParameterError{Name: "trajectory", Value: 0, Reason: "empty trajectory"}
	}
	if shape == nil {
		return nil, &dynamo.ParameterError{Name: "shape", Value: 0, Reason: "missing line shape"}
	}
	return Outer(Profile(wavelength, shape), trajectory), nil
}

// Outer is the field of a sampled profile and a trajectory.
func Outer(profile, trajectory []float64) *Field {
	m := mat.NewDense(len(profile), len(trajectory), nil)
	m.Outer(1, mat.NewVecDense(len(profile), profile), mat.NewVecDense(len(trajectory), trajectory))
	return &Field{m: m}
}

// Dims returns (wavelength count, time count).
func (f *Field) Dims() (int, int) { return f.m.Dims() }

func (f *Field) At(i, j int) float64 { return f.m.At(i, j) }

// Max is the largest cell, ignoring NaN.
func (f *Field) Max() float64 {
	r, c := f.m.Dims()
	mx := math.Inf(-1)
	for i := 0; i < r; i++ {
		for _, v := range f.m.RawRowView(i)[:c] {
			if v > mx {
				mx = v
			}
		}
	}
	return mx
}
