package trpl

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/noise"
)

// fixture is 3 times x 4 wavelengths with count = 10*j + i.
func fixture(t *testing.T) *Dataset {
	t.Helper()
	c := noise.NewCounts(4, 3)
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			c.Set(i, j, int64(10*j+i))
		}
	}
	d, err := New([]float64{0, 0.5, 1}, []float64{200, 210, 220, 230}, c)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNew_TimeMajor(t *testing.T) {
	d := fixture(t)
	if d.Len() != 12 {
		t.Fatalf("len = %d, want 12", d.Len())
	}

	times := []float64{0, 0.5, 1}
	wls := []float64{200, 210, 220, 230}
	for r := 0; r < d.Len(); r++ {
		j, i := r/4, r%4
		want := Row{Time: times[j], Wavelength: wls[i], Intensity: int64(10*j + i)}
		if got := d.Row(r); got != want {
			t.Errorf("row %d = %+v, want %+v", r, got, want)
		}
	}

	seen := make(map[[2]float64]bool)
	for r := 0; r < d.Len(); r++ {
		key := [2]float64{d.Time(r), d.Wavelength(r)}
		if seen[key] {
			t.Fatalf("duplicate pair %v", key)
		}
		seen[key] = true
	}
}

func TestNew_Invalid(t *testing.T) {
	c := noise.NewCounts(2, 2)
	if _, err := New([]float64{0, 1, 2}, []float64{200, 210}, c); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected shape error, got %v", err)
	}
	if _, err := New([]float64{1, 0}, []float64{200, 210}, c); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected axis error, got %v", err)
	}
	c.Set(1, 1, -1)
	if _, err := New([]float64{0, 1}, []float64{200, 210}, c); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected negative count error, got %v", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	d := fixture(t)
	in := d.Intensities()
	in[0] = 999
	tm := d.Times()
	tm[0] = 999
	ax := d.WavelengthAxis()
	ax[0] = 999

	if d.Intensity(0) != 0 || d.Time(0) != 0 || d.Wavelength(0) != 200 {
		t.Error("accessor mutation leaked into the dataset")
	}
}

func TestAggregates(t *testing.T) {
	d := fixture(t)
	// Σ_j Σ_i (10j + i) = 4·(0+10+20) + 3·(0+1+2+3)
	if d.Sum() != 138 {
		t.Errorf("sum = %d, want 138", d.Sum())
	}
	if d.Max() != 23 {
		t.Errorf("max = %d, want 23", d.Max())
	}

	decay := d.DecayCurve()
	wantDecay := []float64{6, 46, 86}
	for j := range wantDecay {
		if decay[j] != wantDecay[j] {
			t.Errorf("decay[%d] = %v, want %v", j, decay[j], wantDecay[j])
		}
	}

	spec := d.Spectrum()
	wantSpec := []float64{30, 33, 36, 39}
	for i := range wantSpec {
		if spec[i] != wantSpec[i] {
			t.Errorf("spectrum[%d] = %v, want %v", i, spec[i], wantSpec[i])
		}
	}
	if d.PeakWavelength() != 230 {
		t.Errorf("peak = %v, want 230", d.PeakWavelength())
	}
}

func TestFromColumns_RoundTrip(t *testing.T) {
	d := fixture(t)
	back, err := FromColumns(d.Times(), d.Wavelengths(), d.Intensities())
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(back) {
		t.Error("FromColumns did not reproduce the dataset")
	}
	if len(back.TimeAxis()) != 3 || len(back.WavelengthAxis()) != 4 {
		t.Errorf("axes = %v, %v", back.TimeAxis(), back.WavelengthAxis())
	}
}

func TestFromColumns_Invalid(t *testing.T) {
	d := fixture(t)
	tests := []struct {
		name   string
		mutate func(tm, wl []float64, in []int64) ([]float64, []float64, []int64)
	}{
		{"length mismatch", func(tm, wl []float64, in []int64) ([]float64, []float64, []int64) {
			return tm, wl[:5], in
		}},
		{"swapped rows", func(tm, wl []float64, in []int64) ([]float64, []float64, []int64) {
			wl[1], wl[2] = wl[2], wl[1]
			return tm, wl, in
		}},
		{"negative intensity", func(tm, wl []float64, in []int64) ([]float64, []float64, []int64) {
			in[7] = -3
			return tm, wl, in
		}},
		{"ragged", func(tm, wl []float64, in []int64) ([]float64, []float64, []int64) {
			return tm[:11], wl[:11], in[:11]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, wl, in := tt.mutate(d.Times(), d.Wavelengths(), d.Intensities())
			if _, err := FromColumns(tm, wl, in); !errors.Is(err, dynamo.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}

	empty, err := FromColumns(nil, nil, nil)
	if err != nil || empty.Len() != 0 {
		t.Errorf("empty columns: %v %v", empty, err)
	}
}

func TestFirstDifference(t *testing.T) {
	a := fixture(t)
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone not equal")
	}

	if err := b.Rescale(2, RoundHalfEven); err != nil {
		t.Fatal(err)
	}
	row, field, differ := a.FirstDifference(b)
	if !differ || row != 1 || field != "intensity" {
		t.Errorf("FirstDifference = %d %q %v", row, field, differ)
	}
	if a.Intensity(1) != 1 {
		t.Error("rescaling the clone changed the original")
	}
}

func TestFilterWavelength(t *testing.T) {
	d := fixture(t)

	sub := d.FilterWavelength(205, 225)
	if sub.Len() != 6 {
		t.Fatalf("len = %d, want 6", sub.Len())
	}
	for r := 0; r < sub.Len(); r++ {
		if w := sub.Wavelength(r); w < 205 || w > 225 {
			t.Errorf("row %d wavelength %v outside window", r, w)
		}
	}
	if sub.Row(2) != (Row{Time: 0.5, Wavelength: 210, Intensity: 11}) {
		t.Errorf("row 2 = %+v", sub.Row(2))
	}

	if closed := d.FilterWavelength(200, 200); closed.Len() != 3 {
		t.Errorf("closed interval kept %d rows, want 3", closed.Len())
	}

	empty := d.FilterWavelength(920, 1000)
	if empty.Len() != 0 || empty.Sum() != 0 {
		t.Errorf("out-of-range filter kept %d rows", empty.Len())
	}
	if empty.DecayCurve() != nil || !math.IsNaN(empty.PeakWavelength()) {
		t.Error("empty dataset views should be empty")
	}
}
