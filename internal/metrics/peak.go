package metrics

import (
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
)

// Peak tracks the largest value of one state component and when it occurred.
type Peak struct {
	name      string
	component int
	value     float64
	at        float64
	samples   int
}

func NewPeak(component int) *Peak {
	return &Peak{
		name:      "peak",
		component: component,
		value:     math.Inf(-1),
	}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(t float64, x dynamo.State) {
	if p.component >= len(x) {
		return
	}
	if p.samples == 0 || x[p.component] > p.value {
		p.value = x[p.component]
		p.at = t
	}
	p.samples++
}

func (p *Peak) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.value
}

// Time is the sample time at which the peak was first reached.
func (p *Peak) Time() float64 { return p.at }

func (p *Peak) Reset() {
	p.value = math.Inf(-1)
	p.at = 0
	p.samples = 0
}
