package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Radau IIA, three stages (order 5). Stiffly accurate: the last stage is
// the step result, which makes the method L-stable.
var (
	sqrt6 = math.Sqrt(6)

	radauC = [3]float64{(4 - sqrt6) / 10, (4 + sqrt6) / 10, 1}
	radauA = [3][3]float64{
		{(88 - 7*sqrt6) / 360, (296 - 169*sqrt6) / 1800, (-2 + 3*sqrt6) / 225},
		{(296 + 169*sqrt6) / 1800, (88 + 7*sqrt6) / 360, (-2 - 3*sqrt6) / 225},
		{(16 - sqrt6) / 36, (16 + sqrt6) / 36, 1.0 / 9.0},
	}
)

// maxCondition rejects iteration matrices that are numerically singular.
const maxCondition = 1e14

// Radau5 solves the stage equations with a simplified Newton iteration on
// the 3n x 3n system (I - h A⊗J) dZ = -Z + h (A⊗I) F(Z). The Jacobian is
// frozen at the start of the step.
type Radau5 struct {
	maxIter int
	tol     dynamo.Tolerances
}

func NewRadau5(tol dynamo.Tolerances) *Radau5 {
	return &Radau5{maxIter: tol.MaxNewtonIter, tol: tol}
}

func (r *Radau5) Order() int { return 5 }

func (r *Radau5) Step(sys dynamo.System, t float64, x dynamo.State, h float64) (dynamo.State, error) {
	n := len(x)
	if n != sys.Dim() {
		return nil, dynamo.ErrDimensionMismatch
	}

	jac := jacobian(sys, t, x)

	m := mat.NewDense(3*n, 3*n, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for p := 0; p < n; p++ {
				for q := 0; q < n; q++ {
					v := -h * radauA[i][j] * jac.At(p, q)
					if i == j && p == q {
						v += 1
					}
					m.Set(i*n+p, j*n+q, v)
				}
			}
		}
	}

	var lu mat.LU
	lu.Factorize(m)
	if cond := lu.Cond(); cond > maxCondition || math.IsNaN(cond) {
		return nil, fmt.Errorf("%w: singular iteration matrix (cond %.3g)", dynamo.ErrNewtonDiverged, cond)
	}

	z := make([]float64, 3*n)
	f := make([]dynamo.State, 3)
	stage := make(dynamo.State, n)
	rhs := mat.NewVecDense(3*n, nil)
	dz := mat.NewVecDense(3*n, nil)

	for iter := 0; iter < r.maxIter; iter++ {
		for j := 0; j < 3; j++ {
			for p := 0; p < n; p++ {
				stage[p] = x[p] + z[j*n+p]
			}
			f[j] = sys.Derive(t+radauC[j]*h, stage)
		}

		for i := 0; i < 3; i++ {
			for p := 0; p < n; p++ {
				s := 0.0
				for j := 0; j < 3; j++ {
					s += radauA[i][j] * f[j][p]
				}
				rhs.SetVec(i*n+p, -z[i*n+p]+h*s)
			}
		}

		if err := lu.SolveVecTo(dz, false, rhs); err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrNewtonDiverged, err)
		}

		norm := 0.0
		for k := range z {
			d := dz.AtVec(k)
			z[k] += d
			sc := r.tol.AbsTol + r.tol.RelTol*math.Abs(x[k%n])
			norm = math.Max(norm, math.Abs(d)/sc)
		}
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			return nil, dynamo.ErrInvalidState
		}

		if norm <= r.tol.NewtonTol {
			result := make(dynamo.State, n)
			for p := 0; p < n; p++ {
				result[p] = x[p] + z[2*n+p]
			}
			if !result.IsValid() {
				return nil, dynamo.ErrInvalidState
			}
			return result, nil
		}
	}

	return nil, dynamo.ErrNewtonDiverged
}

func jacobian(sys dynamo.System, t float64, x dynamo.State) *mat.Dense {
	if j, ok := sys.(dynamo.Jacobian); ok {
		return j.Jacobian(t, x)
	}

	n := len(x)
	f0 := sys.Derive(t, x)
	jac := mat.NewDense(n, n, nil)
	xp := x.Clone()
	for q := 0; q < n; q++ {
		d := math.Sqrt(2.220446049250313e-16) * math.Max(1, math.Abs(x[q]))
		xp[q] = x[q] + d
		f1 := sys.Derive(t, xp)
		for p := 0; p < n; p++ {
			jac.Set(p, q, (f1[p]-f0[p])/d)
		}
		xp[q] = x[q]
	}
	return jac
}
