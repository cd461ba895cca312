package spectrum

import (
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
	"gonum.org/v1/gonum/integrate"
)

// LineShape is an emission profile over wavelength.
type LineShape interface {
	Eval(lambda float64) float64
}

// EMG is an exponentially modified Gaussian with the parameterisation of
// scipy.stats.exponnorm: shape K = 1/(Rate·Width), loc = Center,
// scale = Width. A large Rate (small K) tends to a Gaussian; a small Rate
// gives a long red tail.
type EMG struct {
	Center float64 `yaml:"center" json:"center"`
	Width  float64 `yaml:"width" json:"width"`
	Rate   float64 `yaml:"rate" json:"rate"`
}

func NewEMG(center, width, rate float64) (EMG, error) {
	if math.IsNaN(center) || math.IsInf(center, 0) {
		return EMG{}, &dynamo.ParameterError{Name: "lambda0", Value: center, Reason: "must be finite"}
	}
	if err := dynamo.Positive("sigma", width); err != nil {
		return EMG{}, err
	}
	if err := dynamo.Positive("xi", rate); err != nil {
		return EMG{}, err
	}
	return EMG{Center: center, Width: width, Rate: rate}, nil
}

// K is the exponnorm shape parameter. It overflows to +Inf when Rate·Width
// is subnormal; Eval never forms it.
func (e EMG) K() float64 { return 1 / (e.Rate * e.Width) }

// erfcxCutoff is where the asymptotic expansion of erfcx takes over.
const erfcxCutoff = 25.0

func (e EMG) Eval(lambda float64) float64 {
	// a = 1/K
	a := e.Rate * e.Width
	x := (lambda - e.Center) / e.Width
	z := (a - x) / math.Sqrt2

	var pdf float64
	if z >= erfcxCutoff {
		pdf = 0.5 * a * math.Exp(-x*x/2) * erfcxAsymptotic(z)
	} else {
		pdf = 0.5 * a * math.Exp(0.5*a*a-x*a) * math.Erfc(z)
	}
	return pdf / e.Width
}

// erfcxAsymptotic is exp(z²)·erfc(z) for large positive z.
func erfcxAsymptotic(z float64) float64 {
	z2 := 1 / (z * z)
	series := 1 - z2/2 + 3*z2*z2/4 - 15*z2*z2*z2/8 + 105*z2*z2*z2*z2/16
	return series / (z * math.Sqrt(math.Pi))
}

// Gaussian is the normal density, the EMG limit as Rate → ∞ (K → 0).
type Gaussian struct {
	Center float64 `yaml:"center" json:"center"`
	Width  float64 `yaml:"width" json:"width"`
}

func NewGaussian(center, width float64) (Gaussian, error) {
	if err := dynamo.Positive("sigma", width); err != nil {
		return Gaussian{}, err
	}
	return Gaussian{Center: center, Width: width}, nil
}

func (g Gaussian) Eval(lambda float64) float64 {
	x := (lambda - g.Center) / g.Width
	return math.Exp(-x*x/2) / (g.Width * math.Sqrt(2*math.Pi))
}

// Profile samples shape on axis.
func Profile(axis []float64, shape LineShape) []float64 {
	out := make([]float64, len(axis))
	for i, l := range axis {
		out[i] = shape.Eval(l)
	}
	return out
}

// Integral is the trapezoidal area of shape over axis.
func Integral(axis []float64, shape LineShape) float64 {
	if len(axis) < 2 {
		return 0
	}
	return integrate.Trapezoidal(axis, Profile(axis, shape))
}
