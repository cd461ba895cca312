package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/config"
	"github.com/san-kum/trplsim/internal/integrators"
	"github.com/san-kum/trplsim/internal/logging"
	"github.com/san-kum/trplsim/internal/storage"
	"github.com/san-kum/trplsim/internal/synth"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logger   *slog.Logger

	// generation parameters
	lambda0     float64
	sigma       float64
	xi          float64
	tau         float64
	seed        int64
	timeCount   int
	timeMax     float64
	wlCount     int
	wlMin       float64
	wlMax       float64
	noiseAmp    float64
	ceiling     int64
	integrator  string
	relTol      float64
	absTol      float64
	maxSteps    int
	codecName   string
	compress    bool
	outPath     string
	runName     string
	configFile  string
	preset      string
	theme       string
	exportFmt   string
	heatmap     bool
	rounding    string
	rlRatio     float64
	outputDir   string
	pairDir     string
	pairPrefix  string
	inputFile   string
	rrFile      string
	rlFile      string
	wlRange     string
	dumpCSV     bool
	compareTau  float64
	comparePts  int
	configOut   string
	cfgPreset   string
	showMetrics bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "trplsim",
		Short:         "synthetic time-resolved photoluminescence data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logLevel, os.Stderr)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".trplsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (error, warn, info, debug, trace)")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "generate a dataset",
		Args:  cobra.NoArgs,
		RunE:  generate,
	}
	addGenerateFlags(generateCmd)
	generateCmd.Flags().StringVar(&outPath, "out", "", "write the dataset to this file instead of storing a run")
	generateCmd.Flags().StringVar(&runName, "name", "", "run name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id|file]",
		Short: "plot decay and spectrum",
		Args:  cobra.ExactArgs(1),
		RunE:  plotDataset,
	}

	analyzeCmd := &cobra.Command{
		Use:       "analyze [carrier|spin]",
		Short:     "run a relaxation analysis",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"carrier", "spin"},
		RunE:      analyze,
	}
	analyzeCmd.Flags().StringVar(&inputFile, "file", "", "dataset (carrier)")
	analyzeCmd.Flags().StringVar(&rrFile, "rr", "", "co-polarized dataset (spin)")
	analyzeCmd.Flags().StringVar(&rlFile, "rl", "", "cross-polarized dataset (spin)")
	analyzeCmd.Flags().StringVar(&outputDir, "outputdir", "", "CSV output directory (default: working directory)")
	analyzeCmd.Flags().StringVar(&wlRange, "wavelength-range", "", "wavelength window lo,hi in nm")
	analyzeCmd.Flags().BoolVar(&dumpCSV, "dump-csv", true, "write CSV files")

	pairCmd := &cobra.Command{
		Use:   "pair",
		Short: "generate an RR/RL dataset pair for spin analysis",
		Args:  cobra.NoArgs,
		RunE:  generatePair,
	}
	pairCmd.Flags().Int64Var(&seed, "seed", 0, "noise seed shared by the RR and RL channels")
	pairCmd.Flags().StringVar(&pairDir, "outputdir", ".", "output directory")
	pairCmd.Flags().StringVar(&pairPrefix, "name", "pair", "file name prefix")
	pairCmd.Flags().Float64Var(&rlRatio, "ratio", 0.8, "RL total relative to RR total")
	pairCmd.Flags().StringVar(&rounding, "rounding", "apportion", "rounding mode (round, truncate, apportion)")
	pairCmd.Flags().StringVar(&codecName, "codec", "arrow", "codec (arrow, msgpack)")
	pairCmd.Flags().BoolVar(&compress, "xz", false, "compress with xz")

	exportCmd := &cobra.Command{
		Use:   "export [run_id|file]",
		Short: "export a dataset as svg, xlsx or png",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDataset,
	}
	exportCmd.Flags().StringVar(&exportFmt, "format", "svg", "output format (svg, xlsx, png)")
	exportCmd.Flags().StringVar(&outPath, "out", "", "output path (default: <input stem>.<format>)")
	exportCmd.Flags().BoolVar(&heatmap, "heatmap", false, "svg: draw the full time/wavelength map")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the population equation",
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&compareTau, "tau", synth.DefaultTau, "relaxation time")
	compareCmd.Flags().IntVar(&comparePts, "samples", 480, "number of time samples")
	compareCmd.Flags().IntVar(&maxSteps, "max-steps", 100000, "step budget per integrator")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tTAU\tSEED\tNOISE\tCEILING\tSOLVER")
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%g\t%d\t%g\t%d\t%s\n", name, c.Tau, c.Seed, c.Noise.Amplitude, c.Noise.Ceiling, c.Solver.Name)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "write a configuration file",
		Args:  cobra.NoArgs,
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVar(&cfgPreset, "preset", "reference", "preset to start from")
	configCmd.Flags().StringVar(&configOut, "out", "", "output file (default: stdout)")

	viewCmd := &cobra.Command{
		Use:   "view [run_id|file]",
		Short: "browse a dataset interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  viewDataset,
	}
	viewCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	verifyCmd := &cobra.Command{
		Use:   "verify [run_id|file]",
		Short: "check checksum and codec round trip",
		Args:  cobra.ExactArgs(1),
		RunE:  verifyDataset,
	}

	showCmd.Flags().BoolVar(&showMetrics, "metrics", true, "print simulator metrics")

	rootCmd.AddCommand(generateCmd, listCmd, showCmd, plotCmd, analyzeCmd, pairCmd, exportCmd, compareCmd, presetsCmd, configCmd, viewCmd, verifyCmd)
	rootCmd.AddCommand(automationCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addGenerateFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.Float64Var(&lambda0, "lambda0", def.Lambda0, "emission center (nm)")
	f.Float64Var(&sigma, "sigma", def.Sigma, "gaussian width (nm)")
	f.Float64Var(&xi, "xi", def.Xi, "exponential tail parameter")
	f.Float64Var(&tau, "tau", def.Tau, "relaxation time (s)")
	f.Int64Var(&seed, "seed", def.Seed, "noise seed")
	f.IntVar(&timeCount, "times", def.Grid.TimeCount, "number of time samples")
	f.Float64Var(&timeMax, "time-max", def.Grid.TimeSpan[1], "last time sample (s)")
	f.IntVar(&wlCount, "wavelengths", def.Grid.WavelengthCount, "number of wavelength samples")
	f.Float64Var(&wlMin, "wl-min", def.Grid.WavelengthSpan[0], "first wavelength (nm)")
	f.Float64Var(&wlMax, "wl-max", def.Grid.WavelengthSpan[1], "last wavelength (nm)")
	f.Float64Var(&noiseAmp, "noise", def.Noise.Amplitude, "noise amplitude relative to the field maximum")
	f.Int64Var(&ceiling, "ceiling", def.Noise.Ceiling, "count assigned to the brightest cell")
	f.StringVar(&integrator, "integrator", def.Solver.Name, fmt.Sprintf("integrator %v", integrators.Names()))
	f.Float64Var(&relTol, "rtol", def.Solver.RelTol, "relative tolerance")
	f.Float64Var(&absTol, "atol", def.Solver.AbsTol, "absolute tolerance")
	f.IntVar(&maxSteps, "max-steps", def.Solver.MaxSteps, "step budget")
	f.StringVar(&codecName, "codec", def.Output.Codec, "codec (arrow, msgpack)")
	f.BoolVar(&compress, "xz", def.Output.Compress, "compress with xz")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig applies preset, then config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("lambda0") {
		cfg.Lambda0 = lambda0
	}
	if changed("sigma") {
		cfg.Sigma = sigma
	}
	if changed("xi") {
		cfg.Xi = xi
	}
	if changed("tau") {
		cfg.Tau = tau
	}
	if changed("seed") {
		cfg.Seed = seed
	}
	if changed("times") {
		cfg.Grid.TimeCount = timeCount
	}
	if changed("time-max") {
		cfg.Grid.TimeSpan[1] = timeMax
	}
	if changed("wavelengths") {
		cfg.Grid.WavelengthCount = wlCount
	}
	if changed("wl-min") {
		cfg.Grid.WavelengthSpan[0] = wlMin
	}
	if changed("wl-max") {
		cfg.Grid.WavelengthSpan[1] = wlMax
	}
	if changed("noise") {
		cfg.Noise.Amplitude = noiseAmp
	}
	if changed("ceiling") {
		cfg.Noise.Ceiling = ceiling
	}
	if changed("integrator") {
		cfg.Solver.Name = integrator
	}
	if changed("rtol") {
		cfg.Solver.RelTol = relTol
	}
	if changed("atol") {
		cfg.Solver.AbsTol = absTol
	}
	if changed("max-steps") {
		cfg.Solver.MaxSteps = maxSteps
	}
	if changed("codec") {
		cfg.Output.Codec = codecName
	}
	if changed("xz") {
		cfg.Output.Compress = compress
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func generate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	c, err := cfg.Codec()
	if err != nil {
		return err
	}

	p := cfg.Params()
	p.Logger = logger

	fmt.Printf("generating %dx%d dataset (tau=%g, seed=%d)...\n", p.Grid.TimeCount, p.Grid.WavelengthCount, p.Tau, p.Seed)
	d, trace, err := synth.GenerateTrace(cmd.Context(), p)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := codec.WriteFile(outPath, c, d); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%s)\n", outPath, c.Name())
	} else {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runName, p, d, trace, c)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("completed in %v\n", trace.Elapsed.Round(time.Millisecond))
	fmt.Printf("rows: %d  sum: %d  max: %d\n", d.Len(), d.Sum(), d.Max())
	fmt.Printf("steps: %d (%d rejected)\n", trace.StepsTaken, trace.StepsRejected)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTAU\tSEED\tROWS\tSUM\tCODEC")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Tau,
			run.Seed,
			run.Rows,
			run.Sum,
			run.Codec,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", meta.ID)
	if meta.Name != "" {
		fmt.Fprintf(w, "name\t%s\n", meta.Name)
	}
	fmt.Fprintf(w, "created\t%s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "lambda0\t%g nm\n", meta.Lambda0)
	fmt.Fprintf(w, "sigma\t%g nm\n", meta.Sigma)
	fmt.Fprintf(w, "xi\t%g\n", meta.Xi)
	fmt.Fprintf(w, "tau\t%g s\n", meta.Tau)
	fmt.Fprintf(w, "seed\t%d\n", meta.Seed)
	fmt.Fprintf(w, "grid\t%d x [%g, %g] s, %d x [%g, %g] nm\n",
		meta.Grid.TimeCount, meta.Grid.TimeSpan[0], meta.Grid.TimeSpan[1],
		meta.Grid.WavelengthCount, meta.Grid.WavelengthSpan[0], meta.Grid.WavelengthSpan[1])
	fmt.Fprintf(w, "noise\t%g (ceiling %d)\n", meta.Noise.Amplitude, meta.Noise.Ceiling)
	fmt.Fprintf(w, "integrator\t%s (%d steps)\n", meta.Integrator, meta.Steps)
	fmt.Fprintf(w, "dataset\t%s (%s)\n", st.DatasetPath(meta), meta.Codec)
	fmt.Fprintf(w, "checksum\t%s\n", meta.Checksum)
	fmt.Fprintf(w, "rows\t%d\n", meta.Rows)
	fmt.Fprintf(w, "sum / max\t%d / %d\n", meta.Sum, meta.Max)

	if showMetrics && len(meta.Metrics) > 0 {
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "metric %s\t%.6g\n", name, meta.Metrics[name])
		}
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(cfgPreset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %s)", cfgPreset, strings.Join(config.ListPresets(), ", "))
	}
	if configOut == "" {
		return config.Write(os.Stdout, cfg)
	}
	return config.Save(configOut, cfg)
}
