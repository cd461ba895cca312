package export

import (
	"errors"
	"io"

	"github.com/san-kum/trplsim/internal/trpl"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNothingToPlot indicates a dataset with fewer than two time samples.
var ErrNothingToPlot = errors.New("export: not enough samples to plot")

// Overlay is an extra curve drawn on the decay chart, such as a fit.
type Overlay struct {
	Name    string
	XValues []float64
	YValues []float64
}

// WriteDecayPNG renders the decay curve of d, plus overlays, as a PNG.
func WriteDecayPNG(w io.Writer, d *trpl.Dataset, title string, width, height int, overlays ...Overlay) error {
	times, decay := d.TimeAxis(), d.DecayCurve()
	if len(times) < 2 {
		return ErrNothingToPlot
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "intensity",
			XValues: times,
			YValues: decay,
			Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2.0},
		},
	}
	for _, o := range overlays {
		if len(o.XValues) < 2 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    o.Name,
			XValues: o.XValues,
			YValues: o.YValues,
			Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 1.5},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:  "time (s)",
			Style: chart.Style{FontSize: 10.0},
		},
		YAxis: chart.YAxis{
			Name:  "counts",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}
