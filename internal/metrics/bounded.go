package metrics

import (
	"math"

	"github.com/san-kum/trplsim/internal/dynamo"
)

// Bounded is the fraction of samples whose components all lie in
// [lower, upper]. A physical population trajectory scores 1.
type Bounded struct {
	name       string
	lower      float64
	upper      float64
	violations int
	samples    int
}

func NewBounded(lower, upper float64) *Bounded {
	return &Bounded{
		name:  "bounded",
		lower: lower,
		upper: upper,
	}
}

// NewNonNegative accepts any finite value >= -slack.
func NewNonNegative(slack float64) *Bounded {
	return NewBounded(-slack, math.Inf(1))
}

func (b *Bounded) Name() string {
	return b.name
}

func (b *Bounded) Observe(t float64, x dynamo.State) {
	b.samples++
	for _, val := range x {
		if math.IsNaN(val) || val < b.lower || val > b.upper {
			b.violations++
			break
		}
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}
