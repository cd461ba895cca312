// Package export renders datasets to SVG, XLSX and PNG files.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/trplsim/internal/trpl"
)

type Point struct{ X, Y float64 }

// Points pairs two equally long slices.
func Points(xs, ys []float64) []Point {
	n := min(len(xs), len(ys))
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = Point{xs[i], ys[i]}
	}
	return out
}

// LineToSVG draws a polyline through points scaled into width x height.
func LineToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	// Find bounds
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// DecayToSVG draws the time-resolved signal of d.
func DecayToSVG(d *trpl.Dataset, width, height int) string {
	return LineToSVG(Points(d.TimeAxis(), d.DecayCurve()), width, height, "#00ff00")
}

// HeatmapToSVG draws d as a wavelength (x) by time (y, downwards) map of
// at most maxCells x maxCells rectangles. Neighbouring samples are summed
// into one cell when the grid is larger.
func HeatmapToSVG(d *trpl.Dataset, maxCells int, cellSize float64) string {
	times, wls := d.TimeAxis(), d.WavelengthAxis()
	if len(times) == 0 || len(wls) == 0 || maxCells <= 0 {
		return ""
	}

	nx := min(maxCells, len(wls))
	ny := min(maxCells, len(times))
	bins := make([]float64, nx*ny)
	nw := len(wls)
	for r := 0; r < d.Len(); r++ {
		j, i := r/nw, r%nw
		bins[(j*ny/len(times))*nx+i*nx/nw] += float64(d.Intensity(r))
	}
	peak := 0.0
	for _, v := range bins {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	width := float64(nx) * cellSize
	height := float64(ny) * cellSize

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g shape-rendering="crispEdges">
`, width, height, width, height))

	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			v := bins[y*nx+x] / peak
			if v == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(x)*cellSize, float64(y)*cellSize, cellSize, cellSize, heatColor(v)))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// heatColor maps [0, 1] onto a black-red-yellow-white ramp.
func heatColor(v float64) string {
	v = math.Max(0, math.Min(1, v))
	r := math.Min(1, 3*v)
	g := math.Min(1, math.Max(0, 3*v-1))
	b := math.Max(0, 3*v-2)
	return fmt.Sprintf("#%02x%02x%02x", int(r*255), int(g*255), int(b*255))
}
