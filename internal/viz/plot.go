package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/trplsim/internal/trpl"
)

// Plot sizes used when the caller passes zero.
const (
	DefaultPlotWidth  = 72
	DefaultPlotHeight = 12
)

// DecayPlot draws the time-resolved signal (counts summed over wavelength).
func DecayPlot(d *trpl.Dataset, width, height int) string {
	times := d.TimeAxis()
	if len(times) == 0 {
		return ""
	}
	caption := fmt.Sprintf("decay  t = %.3g .. %.3g", times[0], times[len(times)-1])
	return plot(d.DecayCurve(), width, height, caption)
}

// SpectrumPlot draws the time-integrated spectrum.
func SpectrumPlot(d *trpl.Dataset, width, height int) string {
	wls := d.WavelengthAxis()
	if len(wls) == 0 {
		return ""
	}
	caption := fmt.Sprintf("spectrum  λ = %.4g .. %.4g nm, peak %.4g nm", wls[0], wls[len(wls)-1], d.PeakWavelength())
	return plot(d.Spectrum(), width, height, caption)
}

func plot(series []float64, width, height int, caption string) string {
	if len(series) == 0 {
		return ""
	}
	if width <= 0 {
		width = DefaultPlotWidth
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}
	return asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
	)
}
