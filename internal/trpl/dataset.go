package trpl

import (
	"fmt"
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/grid"
)

// CountMatrix is a wavelength by time matrix of counts such as noise.Counts.
type CountMatrix interface {
	Dims() (r, c int)
	At(i, j int) int64
}

type Row struct {
	Time       float64 `json:"time"`
	Wavelength float64 `json:"wavelength"`
	Intensity  int64   `json:"intensity"`
}

type Dataset struct {
	times       []float64
	wavelengths []float64
	intensity   []int64
}

// New flattens counts (rows indexed by wavelength, columns by time) into a
// time-major dataset.
func New(timeAxis, wavelengthAxis []float64, counts CountMatrix) (*Dataset, error) {
	ta, err := grid.FromValues(timeAxis)
	if err != nil {
		return nil, fmt.Errorf("time axis: %w", err)
	}
	wa, err := grid.FromValues(wavelengthAxis)
	if err != nil {
		return nil, fmt.Errorf("wavelength axis: %w", err)
	}
	nw, nt := len(wa), len(ta)
	if r, c := counts.Dims(); r != nw || c != nt {
		return nil, &dynamo.ParameterError{
			Name:   "counts",
			Value:  float64(r * c),
			Reason: fmt.Sprintf("shape %dx%d does not match %d wavelengths x %d times", r, c, nw, nt),
		}
	}

	intensity := make([]int64, nt*nw)
	dynamo.ParallelFor(nt, 32, func(start, end int) {
		for j := start; j < end; j++ {
			row := intensity[j*nw : (j+1)*nw]
			for i := range row {
				row[i] = counts.At(i, j)
			}
		}
	})
	for r, v := range intensity {
		if v < 0 {
			return nil, &dynamo.ParameterError{Name: "intensity", Value: float64(v), Reason: fmt.Sprintf("negative count at row %d", r)}
		}
	}

	return &Dataset{times: ta, wavelengths: wa, intensity: intensity}, nil
}

// FromColumns rebuilds a dataset from its flattened columns. The rows must
// form a complete time-major grid.
func FromColumns(time, wavelength []float64, intensity []int64) (*Dataset, error) {
	n := len(time)
	if len(wavelength) != n || len(intensity) != n {
		return nil, &dynamo.ParameterError{
			Name:   "columns",
			Value:  float64(n),
			Reason: fmt.Sprintf("length mismatch: time %d, wavelength %d, intensity %d", n, len(wavelength), len(intensity)),
		}
	}
	if n == 0 {
		return &Dataset{}, nil
	}

	nw := 1
	for nw < n && time[nw] == time[0] {
		nw++
	}
	if n%nw != 0 {
		return nil, &dynamo.ParameterError{Name: "rows", Value: float64(n), Reason: fmt.Sprintf("not a multiple of the wavelength count %d", nw)}
	}
	nt := n / nw

	wa, err := grid.FromValues(wavelength[:nw])
	if err != nil {
		return nil, fmt.Errorf("wavelength axis: %w", err)
	}
	timeAxis := make([]float64, nt)
	for j := range timeAxis {
		timeAxis[j] = time[j*nw]
	}
	ta, err := grid.FromValues(timeAxis)
	if err != nil {
		return nil, fmt.Errorf("time axis: %w", err)
	}

	for r := 0; r < n; r++ {
		if time[r] != ta[r/nw] || wavelength[r] != wa[r%nw] {
			return nil, &dynamo.ParameterError{Name: "rows", Value: float64(r), Reason: "rows are not a time-major grid"}
		}
		if intensity[r] < 0 {
			return nil, &dynamo.ParameterError{Name: "intensity", Value: float64(intensity[r]), Reason: fmt.Sprintf("negative count at row %d", r)}
		}
	}

	return &Dataset{times: ta, wavelengths: wa, intensity: append([]int64(nil), intensity...)}, nil
}

func (d *Dataset) Len() int { return len(d.intensity) }

func (d *Dataset) Time(r int) float64 { return d.times[r/len(d.wavelengths)] }

func (d *Dataset) Wavelength(r int) float64 { return d.wavelengths[r%len(d.wavelengths)] }

func (d *Dataset) Intensity(r int) int64 { return d.intensity[r] }

func (d *Dataset) Row(r int) Row {
	return Row{Time: d.Time(r), Wavelength: d.Wavelength(r), Intensity: d.intensity[r]}
}

// Times returns the flattened time column.
func (d *Dataset) Times() []float64 {
	out := make([]float64, d.Len())
	for r := range out {
		out[r] = d.Time(r)
	}
	return out
}

// Wavelengths returns the flattened wavelength column.
func (d *Dataset) Wavelengths() []float64 {
	out := make([]float64, d.Len())
	for r := range out {
		out[r] = d.Wavelength(r)
	}
	return out
}

func (d *Dataset) Intensities() []int64 {
	return append([]int64(nil), d.intensity...)
}

// TimeAxis returns the distinct sample times in increasing order.
func (d *Dataset) TimeAxis() []float64 {
	if d.Len() == 0 {
		return nil
	}
	return append([]float64(nil), d.times...)
}

// WavelengthAxis returns the distinct wavelengths in increasing order.
func (d *Dataset) WavelengthAxis() []float64 {
	if d.Len() == 0 {
		return nil
	}
	return append([]float64(nil), d.wavelengths...)
}

func (d *Dataset) Sum() int64 {
	var s int64
	for _, v := range d.intensity {
		s += v
	}
	return s
}

func (d *Dataset) Max() int64 {
	var mx int64
	for _, v := range d.intensity {
		mx = max(mx, v)
	}
	return mx
}

// Equal reports whether both datasets hold the same rows in the same order.
func (d *Dataset) Equal(other *Dataset) bool {
	_, _, differ := d.FirstDifference(other)
	return !differ
}

// FirstDifference returns the first row and column where d and other
// disagree. A length mismatch is reported at row min(len) with field "rows".
func (d *Dataset) FirstDifference(other *Dataset) (row int, field string, differ bool) {
	if other == nil {
		return 0, "rows", true
	}
	n := min(d.Len(), other.Len())
	for r := 0; r < n; r++ {
		switch {
		case d.Time(r) != other.Time(r):
			return r, "time", true
		case d.Wavelength(r) != other.Wavelength(r):
			return r, "wavelength", true
		case d.intensity[r] != other.intensity[r]:
			return r, "intensity", true
		}
	}
	if d.Len() != other.Len() {
		return n, "rows", true
	}
	return 0, "", false
}

func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		times:       append([]float64(nil), d.times...),
		wavelengths: append([]float64(nil), d.wavelengths...),
		intensity:   append([]int64(nil), d.intensity...),
	}
}

func (d *Dataset) String() string {
	if d.Len() == 0 {
		return "Dataset(empty)"
	}
	return fmt.Sprintf("Dataset(%d times [%g, %g] x %d wavelengths [%g, %g], sum %d, max %d)",
		len(d.times), d.times[0], d.times[len(d.times)-1],
		len(d.wavelengths), d.wavelengths[0], d.wavelengths[len(d.wavelengths)-1],
		d.Sum(), d.Max())
}

var _ fmt.Stringer = (*Dataset)(nil)

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
