package trpl

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/trplsim/internal/dynamo"
)

// Rounding selects how scaled intensities return to integers.
type Rounding int

const (
	// RoundHalfEven rounds every row to the nearest integer, ties to even.
	RoundHalfEven Rounding = iota
	// Truncate rounds every row toward zero.
	Truncate
	// Apportion floors every row, then hands the missing units to the rows
	// with the largest fractional parts (ties to the lower row) so the new
	// sum equals the rounded scaled sum.
	Apportion
)

func (m Rounding) String() string {
	switch m {
	case RoundHalfEven:
		return "round"
	case Truncate:
		return "truncate"
	case Apportion:
		return "apportion"
	}
	return fmt.Sprintf("Rounding(%d)", int(m))
}

func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(s) {
	case "", "round", "round-half-even":
		return RoundHalfEven, nil
	case "truncate", "trunc":
		return Truncate, nil
	case "apportion", "largest-remainder":
		return Apportion, nil
	}
	return 0, fmt.Errorf("unknown rounding mode: %s (available: round, truncate, apportion)", s)
}

// Tolerance bounds |Sum() after Rescale(k) - k·Sum() before| for a dataset
// of the given row count.
func (m Rounding) Tolerance(rows int) float64 {
	switch m {
	case Truncate:
		return float64(rows)
	case Apportion:
		return 0.5
	default:
		return 0.5 * float64(rows)
	}
}

// Rescale multiplies every intensity by factor and rounds per mode. On
// error the dataset is unchanged.
func (d *Dataset) Rescale(factor float64, mode Rounding) error {
	if !finite(factor) || factor <= 0 {
		return &dynamo.ParameterError{Name: "factor", Value: factor, Reason: "must be finite and positive"}
	}
	if float64(d.Max())*factor >= math.MaxInt64/2 {
		return &dynamo.ParameterError{Name: "factor", Value: factor, Reason: "rescaled intensity overflows int64"}
	}

	out := make([]int64, len(d.intensity))
	switch mode {
	case RoundHalfEven:
		for r, v := range d.intensity {
			out[r] = int64(math.RoundToEven(float64(v) * factor))
		}
	case Truncate:
		for r, v := range d.intensity {
			out[r] = int64(float64(v) * factor)
		}
	case Apportion:
		apportion(d.intensity, factor, out)
	default:
		return fmt.Errorf("%w: unknown rounding mode %d", dynamo.ErrInvalidParameter, int(mode))
	}

	d.intensity = out
	return nil
}

// RescaleToSum rescales so the total approaches target.
func (d *Dataset) RescaleToSum(target float64, mode Rounding) error {
	sum := d.Sum()
	if sum == 0 {
		return &dynamo.ParameterError{Name: "sum", Value: 0, Reason: "cannot rescale an all-zero dataset"}
	}
	return d.Rescale(target/float64(sum), mode)
}

func apportion(in []int64, factor float64, out []int64) {
	type rem struct {
		row  int
		frac float64
	}
	rems := make([]rem, len(in))

	var floorSum, sum int64
	for r, v := range in {
		scaled := float64(v) * factor
		f := math.Floor(scaled)
		out[r] = int64(f)
		floorSum += out[r]
		sum += v
		rems[r] = rem{row: r, frac: scaled - f}
	}

	missing := int64(math.RoundToEven(float64(sum)*factor)) - floorSum
	missing = max(0, min(missing, int64(len(in))))
	if missing == 0 {
		return
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for _, r := range rems[:missing] {
		out[r.row]++
	}
}
