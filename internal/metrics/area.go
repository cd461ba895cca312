package metrics

import "github.com/san-kum/trplsim/internal/dynamo"

// Area is the trapezoidal integral of one component over the recorded
// samples. For the relaxation model it approximates the emitted photon
// budget ∫P dt.
type Area struct {
	name      string
	component int
	sum       float64
	lastT     float64
	lastX     float64
	samples   int
}

func NewArea(component int) *Area {
	return &Area{
		name:      "area",
		component: component,
	}
}

func (a *Area) Name() string {
	return a.name
}

func (a *Area) Observe(t float64, x dynamo.State) {
	if a.component >= len(x) {
		return
	}
	v := x[a.component]
	if a.samples > 0 {
		a.sum += 0.5 * (t - a.lastT) * (v + a.lastX)
	}
	a.lastT, a.lastX = t, v
	a.samples++
}

func (a *Area) Value() float64 {
	return a.sum
}

func (a *Area) Reset() {
	a.sum = 0
	a.lastT = 0
	a.lastX = 0
	a.samples = 0
}
