package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/trplsim/internal/automation"
	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/config"
	"github.com/san-kum/trplsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	basePreset string
)

func automationCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of generations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and report the recovered lifetime",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "tau", fmt.Sprintf("parameter %v", config.ParamNames))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.05, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")
	sweepCmd.Flags().StringVar(&basePreset, "preset", "reference", "base preset")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a preset with different seeds",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "first seed")
	mcCmd.Flags().StringVar(&basePreset, "preset", "reference", "base preset")

	return []*cobra.Command{scenarioCmd, sweepCmd, mcCmd}
}

func presetOrError(name string) (*config.Config, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if scenario.Name != "" {
		fmt.Printf("scenario: %s\n", scenario.Name)
	}

	results, err := automation.RunScenario(cmd.Context(), scenario, logger)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	for _, r := range results {
		if r.Step.SaveAs != "" {
			c, err := codec.ByName(codecForPath(r.Step.SaveAs))
			if err != nil {
				return err
			}
			if err := codec.WriteFile(r.Step.SaveAs, c, r.Dataset); err != nil {
				return err
			}
			fmt.Printf("%s: wrote %s\n", r.Step.Name, r.Step.SaveAs)
			continue
		}
		runID, err := st.Save(r.Step.Name, r.Params, r.Dataset, r.Trace, codec.Arrow{})
		if err != nil {
			return err
		}
		fmt.Printf("%s: run id %s\n", r.Step.Name, runID)
	}
	return nil
}

// codecForPath picks a codec name from a file extension.
func codecForPath(path string) string {
	base, compressed := strings.CutSuffix(path, ".xz")
	name := "arrow"
	if strings.HasSuffix(base, ".msgpack") {
		name = "msgpack"
	}
	if compressed {
		name += "+xz"
	}
	return name
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := presetOrError(basePreset)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSUM\tPEAK_NM\tFIT_TAU\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%.2f\t%.4g\n", r.ParamValue, r.Sum, r.PeakWavelength, r.FitTau)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := presetOrError(basePreset)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:      base,
		NumTrials: trials,
		Seed:      seed,
	}, logger)
	if err != nil {
		return err
	}

	mean, std, failed := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d (fit failed: %d)\n", len(results), failed)
	fmt.Printf("true tau: %g s\n", base.Tau)
	fmt.Printf("fitted tau: %.4g ± %.2g s\n", mean, std)
	return nil
}
