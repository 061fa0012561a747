package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/uqsim/internal/config"
	"github.com/san-kum/uqsim/internal/experiment"
)

var (
	dataDir   string
	logLevel  string
	logPretty bool

	configFile     string
	saveConfig     string
	preset         string
	integrator     string
	t0             float64
	t1             float64
	points         int
	samples        int
	seed           uint64
	workers        int
	tolerant       bool
	allowNonFinite bool
	initState      []float64
	bandLo         float64
	bandHi         float64

	component   int
	plot        bool
	showMetrics bool

	outFile string

	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "uqsim",
		Short: "ODE integration with Monte Carlo uncertainty propagation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".uqsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "human readable logs")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate once at the nominal parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  runNominal,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the selected component")
	runCmd.Flags().IntVar(&component, "component", 0, "state component to plot")

	mcCmd := &cobra.Command{
		Use:   "mc [model]",
		Short: "propagate parameter uncertainty through a model",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	addConfigFlags(mcCmd)
	mcCmd.Flags().IntVar(&component, "component", 0, "state component to plot")
	mcCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print prometheus metrics after the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().Float64Var(&bandLo, "band-lo", config.DefaultBandLo, "lower quantile")
	showCmd.Flags().Float64Var(&bandHi, "band-hi", config.DefaultBandHi, "upper quantile")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the quantile band of one component",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&component, "component", 0, "state component")
	plotCmd.Flags().Float64Var(&bandLo, "band-lo", config.DefaultBandLo, "lower quantile")
	plotCmd.Flags().Float64Var(&bandHi, "band-hi", config.DefaultBandHi, "upper quantile")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run summary to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().Float64Var(&bandLo, "band-lo", config.DefaultBandLo, "lower quantile")
	exportJSONCmd.Flags().Float64Var(&bandHi, "band-hi", config.DefaultBandHi, "upper quantile")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := experiment.NewRegistry().ListModels()
			if len(args) == 1 {
				models = args[:1]
			}
			for _, m := range models {
				presets := config.ListPresets(m)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", m)
					continue
				}
				fmt.Printf("presets for %s:\n", m)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the quantile band of one component as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&component, "component", 0, "state component")
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().Float64Var(&bandLo, "band-lo", config.DefaultBandLo, "lower quantile")
	exportSVGCmd.Flags().Float64Var(&bandHi, "band-hi", config.DefaultBandHi, "upper quantile")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run and store every step of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep the marginal scale and report the final spread",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&component, "component", 0, "state component to report")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.05, "smallest marginal scale")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "largest marginal scale")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of scales")

	rootCmd.AddCommand(runCmd, mcCmd, listCmd, showCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, batchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&saveConfig, "save-config", "", "write the resolved config to this path")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (euler, rk4, rkf45)")
	f.Float64Var(&t0, "t0", config.DefaultT0, "start time")
	f.Float64Var(&t1, "t1", config.DefaultT1, "end time")
	f.IntVar(&points, "points", config.DefaultPoints, "grid points, endpoints included")
	f.IntVar(&samples, "samples", config.DefaultSamples, "Monte Carlo samples")
	f.Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	f.IntVar(&workers, "workers", 1, "parallel workers")
	f.BoolVar(&tolerant, "tolerant", false, "keep failed samples instead of aborting")
	f.BoolVar(&allowNonFinite, "allow-non-finite", false, "let NaN and Inf propagate into trajectories")
	f.Float64SliceVar(&initState, "init", nil, "initial state, comma separated")
	f.Float64Var(&bandLo, "band-lo", config.DefaultBandLo, "lower quantile")
	f.Float64Var(&bandHi, "band-hi", config.DefaultBandHi, "upper quantile")
}

// resolveConfig layers preset, config file, environment and changed flags,
// in that order.
func resolveConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.Model = model
	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("t0") {
		cfg.T0 = t0
	}
	if flags.Changed("t1") {
		cfg.T1 = t1
	}
	if flags.Changed("points") {
		cfg.Points = points
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("tolerant") {
		cfg.Tolerant = tolerant
	}
	if flags.Changed("allow-non-finite") {
		cfg.AllowNonFinite = allowNonFinite
	}
	if flags.Changed("init") {
		cfg.InitState = initState
	}
	if flags.Changed("band-lo") {
		cfg.Band.Lo = bandLo
	}
	if flags.Changed("band-hi") {
		cfg.Band.Hi = bandHi
	}

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config: %w", err)
		}
	}

	return cfg, nil
}
