package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/trplsim/internal/trpl"
)

type viewMode int

const (
	viewSpectrum viewMode = iota // spectrum at the time cursor
	viewDecay                    // decay at the wavelength cursor
)

// Viewer browses a dataset one time or wavelength slice at a time.
type Viewer struct {
	data     *trpl.Dataset
	title    string
	times    []float64
	wls      []float64
	ti, wi   int
	mode     viewMode
	theme    Theme
	styles   Styles
	width    int
	height   int
	showHelp bool
}

// NewViewer opens d at its brightest time slice and peak wavelength.
func NewViewer(d *trpl.Dataset, title, theme string) Viewer {
	t := GetTheme(theme)
	v := Viewer{
		data:   d,
		title:  title,
		times:  d.TimeAxis(),
		wls:    d.WavelengthAxis(),
		theme:  t,
		styles: NewStyles(t),
		width:  DefaultPlotWidth,
		height: DefaultPlotHeight,
	}
	v.ti = argmax(d.DecayCurve())
	v.wi = argmax(d.Spectrum())
	return v
}

func (v Viewer) Init() tea.Cmd { return nil }

func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return v, tea.Quit
		case "left", "h":
			v.ti = max(v.ti-1, 0)
		case "right", "l":
			v.ti = min(v.ti+1, len(v.times)-1)
		case "down", "j":
			v.wi = max(v.wi-1, 0)
		case "up", "k":
			v.wi = min(v.wi+1, len(v.wls)-1)
		case "home":
			v.ti, v.wi = 0, 0
		case "tab":
			if v.mode == viewSpectrum {
				v.mode = viewDecay
			} else {
				v.mode = viewSpectrum
			}
		case "t":
			v.theme = nextTheme(v.theme.Name)
			v.styles = NewStyles(v.theme)
		case "?":
			v.showHelp = !v.showHelp
		}
	case tea.WindowSizeMsg:
		v.width = max(msg.Width-30, 20)
		v.height = max(msg.Height-14, 4)
	}
	return v, nil
}

// SpectrumAt returns the counts of time slice j.
func (v Viewer) SpectrumAt(j int) []float64 {
	nw := len(v.wls)
	out := make([]float64, nw)
	for i := range out {
		out[i] = float64(v.data.Intensity(j*nw + i))
	}
	return out
}

// DecayAt returns the counts of wavelength column i.
func (v Viewer) DecayAt(i int) []float64 {
	nw := len(v.wls)
	out := make([]float64, len(v.times))
	for j := range out {
		out[j] = float64(v.data.Intensity(j*nw + i))
	}
	return out
}

func (v Viewer) View() string {
	s := v.styles
	if len(v.times) == 0 || len(v.wls) == 0 {
		return s.Subtle.Render("empty dataset") + "\n"
	}

	var b strings.Builder
	b.WriteString(s.Header.Render(v.title) + "\n\n")

	var series []float64
	var caption string
	if v.mode == viewSpectrum {
		series = v.SpectrumAt(v.ti)
		caption = fmt.Sprintf("spectrum at t = %.4g", v.times[v.ti])
	} else {
		series = v.DecayAt(v.wi)
		caption = fmt.Sprintf("decay at λ = %.4g nm", v.wls[v.wi])
	}
	graph := asciigraph.Plot(series,
		asciigraph.Width(v.width),
		asciigraph.Height(v.height),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
	)
	b.WriteString(s.Graph.Render(graph) + "\n")

	stats := []string{
		s.Title.Render("cursor"),
		s.Metric("time", fmt.Sprintf("%.4g (%d/%d)", v.times[v.ti], v.ti+1, len(v.times))),
		s.Metric("wavelength", fmt.Sprintf("%.4g nm (%d/%d)", v.wls[v.wi], v.wi+1, len(v.wls))),
		s.Metric("counts", fmt.Sprint(v.data.Intensity(v.ti*len(v.wls)+v.wi))),
		"",
		s.Title.Render("dataset"),
		s.Metric("rows", fmt.Sprint(v.data.Len())),
		s.Metric("total", fmt.Sprint(v.data.Sum())),
		s.Metric("max", fmt.Sprint(v.data.Max())),
		s.Metric("peak λ", fmt.Sprintf("%.4g nm", v.data.PeakWavelength())),
		"",
		s.Subtle.Render("decay"),
		s.Sparkline(v.data.DecayCurve(), 24),
		s.Subtle.Render("spectrum"),
		s.Sparkline(v.data.Spectrum(), 24),
	}
	b.WriteString(s.Panel.Render(strings.Join(stats, "\n")) + "\n")

	if v.showHelp {
		b.WriteString(s.Separator(40) + "\n")
		b.WriteString(s.KeyHint.Render("←/→ time  ↑/↓ wavelength  tab view  t theme  home reset  q quit") + "\n")
	} else {
		b.WriteString(s.KeyHint.Render(fmt.Sprintf("theme %s  ? help", v.theme.Name)) + "\n")
	}
	return b.String()
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
