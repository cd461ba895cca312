package physics

import (
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Relaxation is a driven excited-state population with lifetime tau.
type Relaxation struct {
	tau   float64
	drive Drive
}

func NewRelaxation(tau float64, drive Drive) (*Relaxation, error) {
	if err := dynamo.Positive("tau", tau); err != nil {
		return nil, err
	}
	if drive == nil {
		drive = DriveFunc(func(float64) float64 { return 0 })
	}
	return &Relaxation{tau: tau, drive: drive}, nil
}

func (r *Relaxation) Dim() int { return 1 }

// Derive returns dP/dt = -P/τ + I(t).
func (r *Relaxation) Derive(t float64, x dynamo.State) dynamo.State {
	return dynamo.State{-x[0]/r.tau + r.drive.At(t)}
}

func (r *Relaxation) Jacobian(_ float64, _ dynamo.State) *mat.Dense {
	return mat.NewDense(1, 1, []float64{-1 / r.tau})
}

// GaussianResponse is the exact P(t) for a Gaussian pulse starting from
// P(start) = 0:
//
//	P(t) = A·w·√π/2 · exp(-(t-t0)/τ + a²) · [erf(u1-a) - erf(u0-a)]
//
// with a = w/2τ, u0 = (start-t0)/w, u1 = (t-t0)/w.
func GaussianResponse(t, start, tau float64, p GaussianPulse) float64 {
	if t <= start {
		return 0
	}
	a := p.Width / (2 * tau)
	u0 := (start - p.Onset) / p.Width
	u1 := (t - p.Onset) / p.Width
	bracket := erfDiff(u1-a, u0-a)
	if bracket == 0 {
		return 0
	}
	return p.Amplitude * p.Width * math.Sqrt(math.Pi) / 2 * math.Exp(-(t-p.Onset)/tau+a*a) * bracket
}

// erfDiff computes erf(x) - erf(y) without cancellation in the tails.
func erfDiff(x, y float64) float64 {
	switch {
	case x > 0 && y > 0:
		return math.Erfc(y) - math.Erfc(x)
	case x < 0 && y < 0:
		return math.Erfc(-x) - math.Erfc(-y)
	default:
		return math.Erf(x) - math.Erf(y)
	}
}
