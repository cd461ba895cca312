package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/trplsim/internal/analysis"
	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/config"
	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/export"
	"github.com/san-kum/trplsim/internal/grid"
	"github.com/san-kum/trplsim/internal/integrators"
	"github.com/san-kum/trplsim/internal/physics"
	"github.com/san-kum/trplsim/internal/sim"
	"github.com/san-kum/trplsim/internal/storage"
	"github.com/san-kum/trplsim/internal/synth"
	"github.com/san-kum/trplsim/internal/trpl"
	"github.com/san-kum/trplsim/internal/viz"
	"github.com/spf13/cobra"
)

// loadRun accepts a full run ID or a unique prefix.
func loadRun(st *storage.Store, arg string) (*storage.RunMetadata, error) {
	if meta, err := st.Load(arg); err == nil {
		return meta, nil
	}
	path, err := st.Resolve(arg)
	if err != nil {
		return nil, err
	}
	return st.Load(filepath.Base(filepath.Dir(path)))
}

// openDataset loads a dataset file or a stored run. meta is nil for files.
func openDataset(arg string) (*trpl.Dataset, *storage.RunMetadata, string, error) {
	st := storage.New(dataDir)

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		d, err := codec.ReadFile(arg)
		return d, nil, arg, err
	}

	meta, err := loadRun(st, arg)
	if err != nil {
		return nil, nil, "", err
	}
	d, err := st.LoadDataset(meta.ID)
	if err != nil {
		return nil, nil, "", err
	}
	return d, meta, st.DatasetPath(meta), nil
}

// resolveInput maps a run ID to its dataset path; anything else passes through.
func resolveInput(arg string) string {
	if arg == "" {
		return ""
	}
	path, err := storage.New(dataDir).Resolve(arg)
	if err != nil {
		return arg
	}
	return path
}

func plotDataset(cmd *cobra.Command, args []string) error {
	d, meta, path, err := openDataset(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("dataset: %s\n", path)
	fmt.Printf("rows: %d  sum: %d  max: %d\n\n", d.Len(), d.Sum(), d.Max())

	fmt.Println(viz.DecayPlot(d, 80, 10))
	fmt.Println()
	fmt.Println(viz.SpectrumPlot(d, 80, 10))

	if meta != nil {
		_, population, err := storage.New(dataDir).LoadPopulation(meta.ID)
		if err == nil && len(population) > 0 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(population,
				asciigraph.Height(8),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("population P(t), tau = %g s", meta.Tau)),
			))
		}
	}
	return nil
}

func parseRange(s string) (*[2]float64, error) {
	if s == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("invalid wavelength range %q: expected lo,hi", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid wavelength range %q: %w", s, err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid wavelength range %q: %w", s, err)
	}
	return &[2]float64{a, b}, nil
}

func analyze(cmd *cobra.Command, args []string) error {
	var notebook string
	switch args[0] {
	case "carrier", analysis.CarrierRelaxation:
		notebook = analysis.CarrierRelaxation
	case "spin", analysis.SpinRelaxation:
		notebook = analysis.SpinRelaxation
	default:
		return fmt.Errorf("unknown analysis: %s (available: carrier, spin)", args[0])
	}

	window, err := parseRange(wlRange)
	if err != nil {
		return err
	}

	p := analysis.Params{
		File:            resolveInput(inputFile),
		RR:              resolveInput(rrFile),
		RL:              resolveInput(rlFile),
		OutputDir:       outputDir,
		WavelengthRange: window,
	}
	if cmd.Flags().Changed("dump-csv") {
		p.DumpCSV = &dumpCSV
	}

	report, err := analysis.NewEngine(logger).Execute(cmd.Context(), notebook, p)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d rows in %v\n", report.Notebook, report.Rows, report.Elapsed.Round(time.Millisecond))
	if report.PeakWavelength > 0 {
		fmt.Printf("peak wavelength: %.2f nm\n", report.PeakWavelength)
	}
	if report.Fit != nil {
		fmt.Printf("fit: A = %.4g, tau = %.4g s (%d points, residual %.3g)\n",
			report.Fit.Amplitude, report.Fit.Tau, report.Fit.Points, report.Fit.Residual)
	}
	for _, f := range report.Files {
		fmt.Printf("wrote %s\n", f)
	}
	return nil
}

// pairParams builds the RR and RL channels. They share the noise seed and
// differ only in the relaxation time.
func pairParams(seed int64) []synth.Params {
	rr, rl := config.GetPreset("spin-rr"), config.GetPreset("spin-rl")
	rr.Seed, rl.Seed = seed, seed
	return []synth.Params{rr.Params(), rl.Params()}
}

func generatePair(cmd *cobra.Command, args []string) error {
	mode, err := trpl.ParseRounding(rounding)
	if err != nil {
		return err
	}
	name := codecName
	if compress {
		name += "+xz"
	}
	c, err := codec.ByName(name)
	if err != nil {
		return err
	}

	params := pairParams(seed)
	for i := range params {
		params[i].Logger = logger
	}

	datasets, err := synth.GenerateBatch(cmd.Context(), params)
	if err != nil {
		return err
	}
	dRR, dRL := datasets[0], datasets[1]

	target := rlRatio * float64(dRR.Sum())
	if err := dRL.RescaleToSum(target, mode); err != nil {
		return err
	}

	if err := os.MkdirAll(pairDir, 0755); err != nil {
		return err
	}
	for _, out := range []struct {
		channel string
		d       *trpl.Dataset
	}{{"RR", dRR}, {"RL", dRL}} {
		path := filepath.Join(pairDir, pairPrefix+"_"+out.channel+codec.Ext(c))
		if err := codec.WriteFile(path, c, out.d); err != nil {
			return err
		}
		fmt.Printf("wrote %s (sum %d)\n", path, out.d.Sum())
	}
	fmt.Printf("RL/RR = %.4f (target %.4f, %s rounding)\n", float64(dRL.Sum())/float64(dRR.Sum()), rlRatio, mode)
	return nil
}

func exportDataset(cmd *cobra.Command, args []string) error {
	d, meta, path, err := openDataset(args[0])
	if err != nil {
		return err
	}

	format := strings.ToLower(exportFmt)
	out := outPath
	if out == "" {
		stem := analysis.Stem(path)
		if meta != nil {
			stem = meta.ID
		}
		out = stem + "." + format
		if heatmap && format == "svg" {
			out = stem + "_heatmap.svg"
		}
	}

	switch format {
	case "svg":
		var svg string
		if heatmap {
			svg = export.HeatmapToSVG(d, 256, 3)
		} else {
			svg = export.DecayToSVG(d, 800, 400)
		}
		if svg == "" {
			return export.ErrNothingToPlot
		}
		if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
			return err
		}

	case "xlsx":
		if err := export.SaveXLSX(out, d, runSummary(meta)); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}

	case "png":
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		overlays := fitOverlay(cmd.Context(), d)
		if err := export.WriteDecayPNG(f, d, filepath.Base(path), 1024, 600, overlays...); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown format: %s (available: svg, xlsx, png)", exportFmt)
	}

	fmt.Printf("exported %s\n", out)
	return nil
}

func runSummary(meta *storage.RunMetadata) export.Summary {
	if meta == nil {
		return nil
	}
	return export.Summary{
		{"run", meta.ID},
		{"lambda0", strconv.FormatFloat(meta.Lambda0, 'g', -1, 64)},
		{"sigma", strconv.FormatFloat(meta.Sigma, 'g', -1, 64)},
		{"xi", strconv.FormatFloat(meta.Xi, 'g', -1, 64)},
		{"tau", strconv.FormatFloat(meta.Tau, 'g', -1, 64)},
		{"seed", strconv.FormatInt(meta.Seed, 10)},
		{"integrator", meta.Integrator},
		{"checksum", meta.Checksum},
	}
}

// fitOverlay returns the exponential fit of the decay, or nothing when the
// signal cannot be fitted.
func fitOverlay(ctx context.Context, d *trpl.Dataset) []export.Overlay {
	times := d.TimeAxis()
	fit, err := analysis.FitDecay(ctx, times, d.DecayCurve())
	if err != nil {
		logger.Debug("decay fit skipped", "err", err)
		return nil
	}
	var xs, ys []float64
	for _, t := range times {
		if t >= fit.Start {
			xs = append(xs, t)
			ys = append(ys, fit.At(t))
		}
	}
	return []export.Overlay{{Name: fmt.Sprintf("fit tau=%.3g", fit.Tau), XValues: xs, YValues: ys}}
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}

	pulse := physics.DefaultPulse()
	sys, err := physics.NewRelaxation(compareTau, pulse)
	if err != nil {
		return err
	}
	times, err := grid.Linspace(0, 1, comparePts)
	if err != nil {
		return err
	}

	tol := dynamo.DefaultTolerances()
	tol.MaxSteps = maxSteps

	fmt.Printf("comparing integrators on dP/dt = -P/tau + I(t) (tau=%g, %d samples)\n\n", compareTau, comparePts)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tREJECTED\tMAX_ERR\tTIME_MS\tSTATUS")

	for _, name := range names {
		integ, err := integrators.New(name, tol)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t%v\n", name, err)
			continue
		}

		s := sim.New(sys, integ, tol)
		s.SetLogger(logger)

		start := time.Now()
		result, err := s.Run(cmd.Context(), times, dynamo.State{0})
		elapsed := time.Since(start)

		if err != nil {
			status := "failed"
			if errors.Is(err, dynamo.ErrTooManySteps) {
				status = "step budget exhausted"
			}
			fmt.Fprintf(w, "%s\t-\t-\t-\t%.2f\t%s: %v\n", name, float64(elapsed.Microseconds())/1000, status, err)
			continue
		}

		maxErr := 0.0
		for k, t := range result.Times {
			exact := physics.GaussianResponse(t, times[0], compareTau, pulse)
			maxErr = math.Max(maxErr, math.Abs(result.States[k][0]-exact))
		}

		kind := "explicit"
		if integrators.Implicit(name) {
			kind = "implicit"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2e\t%.2f\tok (%s)\n",
			name, result.StepsTaken, result.StepsRejected, maxErr, float64(elapsed.Microseconds())/1000, kind)
	}

	return w.Flush()
}

func viewDataset(cmd *cobra.Command, args []string) error {
	d, _, path, err := openDataset(args[0])
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewViewer(d, filepath.Base(path), theme), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func verifyDataset(cmd *cobra.Command, args []string) error {
	arg := args[0]
	path := arg
	var meta *storage.RunMetadata

	if info, err := os.Stat(arg); err != nil || info.IsDir() {
		st := storage.New(dataDir)
		if meta, err = loadRun(st, arg); err != nil {
			return err
		}
		path = st.DatasetPath(meta)
		if err := storage.VerifyChecksum(path, meta.Checksum); err != nil {
			return err
		}
		fmt.Printf("checksum ok: %s\n", meta.Checksum)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c, err := codec.Detect(data)
	if err != nil {
		return err
	}
	d, err := c.Decode(data)
	if err != nil {
		return err
	}

	var mismatch *codec.MismatchError
	if err := codec.Verify(c, d); err != nil {
		if errors.As(err, &mismatch) {
			return fmt.Errorf("%s: round trip differs at row %d (%s): %w", path, mismatch.Row, mismatch.Field, err)
		}
		return err
	}

	fmt.Printf("%s: %s, %d rows, round trip ok\n", path, c.Name(), d.Len())
	return nil
}
