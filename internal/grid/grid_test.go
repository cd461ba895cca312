package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trplsim/internal/dynamo"
)

func TestLinspace(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		n      int
		want   Axis
	}{
		{"single", 3, 7, 1, Axis{3}},
		{"two", 0, 1, 2, Axis{0, 1}},
		{"five", 0, 1, 5, Axis{0, 0.25, 0.5, 0.75, 1}},
		{"negative span", -2, 2, 3, Axis{-2, 0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Linspace(tt.lo, tt.hi, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-15 {
					t.Errorf("axis[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLinspace_EndpointExact(t *testing.T) {
	a, err := Linspace(200, 300, 640)
	if err != nil {
		t.Fatal(err)
	}
	if a[0] != 200 || a[len(a)-1] != 300 {
		t.Errorf("endpoints = %v, %v", a[0], a[len(a)-1])
	}
	for i := 1; i < len(a); i++ {
		if !(a[i] > a[i-1]) {
			t.Fatalf("not strictly increasing at %d", i)
		}
	}
}

func TestLinspace_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		n      int
	}{
		{"zero count", 0, 1, 0},
		{"negative count", 0, 1, -3},
		{"reversed", 1, 0, 10},
		{"degenerate", 1, 1, 2},
		{"nan", math.NaN(), 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Linspace(tt.lo, tt.hi, tt.n); !errors.Is(err, dynamo.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestAxis_Helpers(t *testing.T) {
	a, _ := Linspace(0, 1, 11)
	if a.Len() != 11 || a.Min() != 0 || a.Max() != 1 {
		t.Errorf("unexpected len/min/max: %d %v %v", a.Len(), a.Min(), a.Max())
	}
	if math.Abs(a.Step()-0.1) > 1e-15 {
		t.Errorf("step = %v", a.Step())
	}

	indexTests := []struct {
		v    float64
		want int
	}{
		{-5, 0}, {0.04, 0}, {0.06, 1}, {0.5, 5}, {2, 10},
	}
	for _, tt := range indexTests {
		if got := a.Index(tt.v); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}

	v := a.Values()
	v[0] = 42
	if a[0] != 0 {
		t.Error("Values did not copy")
	}
}

func TestFromValues(t *testing.T) {
	if _, err := FromValues([]float64{0, 1, 1}); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected error for repeated value, got %v", err)
	}
	if _, err := FromValues(nil); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected error for empty axis, got %v", err)
	}
	a, err := FromValues([]float64{1, 2, 4})
	if err != nil || a.Len() != 3 {
		t.Errorf("unexpected %v %v", a, err)
	}
}

func TestBuild(t *testing.T) {
	g, err := Build(DefaultSpec())
	if err != nil {
		t.Fatal(err)
	}
	if g.Time.Len() != 480 || g.Wavelength.Len() != 640 {
		t.Errorf("sizes = %d x %d", g.Time.Len(), g.Wavelength.Len())
	}
	if DefaultSpec().Rows() != 307200 {
		t.Errorf("rows = %d", DefaultSpec().Rows())
	}

	bad := DefaultSpec()
	bad.WavelengthCount = 0
	if _, err := Build(bad); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}
