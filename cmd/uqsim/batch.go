package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/uqsim/internal/automation"
	"github.com/san-kum/uqsim/internal/experiment"
	"github.com/san-kum/uqsim/internal/logging"
	"github.com/san-kum/uqsim/internal/storage"
	"github.com/san-kum/uqsim/internal/viz"
)

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), logging.Component(logger, "automation"),
		experiment.WithLogger(logging.Component(logger, "montecarlo")))

	st := storage.New(dataDir)
	fmt.Println(viz.Title.Render(sc.Name))
	for _, r := range results {
		runID, err := st.Save(storage.RunInfo{
			Model:      r.Config.Model,
			Integrator: r.Config.Integrator,
			Workers:    r.Config.Workers,
			Tolerant:   r.Config.Tolerant,
			Labels:     r.Labels,
			Marginals:  r.Marginal,
		}, r.Ensemble)
		if err != nil {
			return err
		}
		fmt.Println(viz.StatusOK.Render("ok ") + viz.KeyValue(r.Name, runID))
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ScaleSweep{
		Base:      cfg,
		Component: component,
		ScaleMin:  sweepMin,
		ScaleMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, experiment.NewRegistry(), logging.Component(logger, "automation"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCALE\tMEAN\tSTD\tQ%.0f\tQ%.0f\tFAILED\n", cfg.Band.Lo*100, cfg.Band.Hi*100)
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.4g\t%.4g\t%.4g\t%.4g\t%d\n", r.Scale, r.FinalMean, r.FinalStd, r.Lower, r.Upper, r.Failed)
	}
	return w.Flush()
}
