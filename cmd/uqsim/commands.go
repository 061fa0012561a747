package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/uqsim/internal/analysis"
	"github.com/san-kum/uqsim/internal/experiment"
	"github.com/san-kum/uqsim/internal/export"
	"github.com/san-kum/uqsim/internal/logging"
	"github.com/san-kum/uqsim/internal/metrics"
	"github.com/san-kum/uqsim/internal/montecarlo"
	"github.com/san-kum/uqsim/internal/storage"
	"github.com/san-kum/uqsim/internal/viz"
)

func newLogger() zerolog.Logger {
	return logging.New(os.Stderr, logLevel, logPretty)
}

func runNominal(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	logger := newLogger()
	exp, err := experiment.New(cfg, experiment.NewRegistry(), experiment.WithLogger(logging.Component(logger, "experiment")))
	if err != nil {
		return err
	}

	start := time.Now()
	traj, err := exp.Nominal()
	if err != nil {
		return err
	}

	labels := exp.Labels()
	fmt.Println(viz.Title.Render(fmt.Sprintf("%s nominal run (%s)", cfg.Model, cfg.Integrator)))
	fmt.Println(viz.KeyValue("elapsed", time.Since(start).String()))
	fmt.Println(viz.KeyValue("points", fmt.Sprint(traj.Len())))
	fmt.Println(viz.KeyValue("max err est", fmt.Sprintf("%.3g", traj.MaxErrEst())))
	fmt.Println(viz.StateTable(traj.Final(), labels))

	if plot {
		values, err := traj.Component(component)
		if err != nil {
			return err
		}
		fmt.Println(viz.LinePlot(values, labelFor(labels, component), viz.DefaultPlotOptions()))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	logger := newLogger()
	collector := metrics.New()
	exp, err := experiment.New(cfg, experiment.NewRegistry(),
		experiment.WithLogger(logging.Component(logger, "montecarlo")),
		experiment.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	ens, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	labels := exp.Labels()
	runID, err := st.Save(storage.RunInfo{
		Model:      cfg.Model,
		Integrator: cfg.Integrator,
		Workers:    cfg.Workers,
		Tolerant:   cfg.Tolerant,
		Labels:     labels,
		Marginals:  exp.Marginals(),
	}, ens)
	if err != nil {
		return err
	}
	logger.Info().Str("run", runID).Str("dir", dataDir).Msg("run stored")

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s ensemble (%s)", cfg.Model, cfg.Integrator)))
	fmt.Println(viz.KeyValue("run id", runID))
	fmt.Println(viz.KeyValue("elapsed", elapsed.String()))
	printEnsemble(ens, labels, cfg.Band.Lo, cfg.Band.Hi)

	if showMetrics {
		fmt.Println()
		if err := collector.WriteText(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

func printEnsemble(ens *montecarlo.Ensemble, labels []string, lo, hi float64) {
	fmt.Println(viz.KeyValue("samples", fmt.Sprintf("%d (%d ok)", ens.Len(), ens.Succeeded())))
	fmt.Println(viz.KeyValue("seed", fmt.Sprint(ens.Seed)))
	for _, f := range ens.Failures() {
		fmt.Println(viz.StatusFailed.Render("failed: ") + f.Err.Error())
	}

	if mean, std, err := analysis.DrawMoments(ens); err == nil {
		for i := range mean {
			fmt.Println(viz.KeyValue(fmt.Sprintf("xi%d", i), fmt.Sprintf("%.4f ± %.4f", mean[i], std[i])))
		}
	}

	bands, err := analysis.Summarize(ens, lo, hi)
	if err != nil {
		fmt.Println(viz.StatusFailed.Render(err.Error()))
		return
	}
	fmt.Println(viz.SummaryTable(bands, labels))

	if component >= 0 && component < len(bands) {
		fmt.Println(viz.BandPlot(bands[component], labelFor(labels, component), viz.DefaultPlotOptions()))
	}
}

func labelFor(labels []string, i int) string {
	if i >= 0 && i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("x%d", i)
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tINTEG\tSAMPLES\tOK\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Integrator,
			run.Samples,
			run.Succeeded,
			run.Seed,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, ens, err := storage.New(dataDir).LoadEnsemble(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(meta.ID))
	fmt.Println(viz.KeyValue("model", meta.Model))
	fmt.Println(viz.KeyValue("integrator", meta.Integrator))
	fmt.Println(viz.KeyValue("timestamp", meta.Timestamp.Format(time.RFC3339)))
	component = -1
	printEnsemble(ens, meta.Labels, bandLo, bandHi)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, ens, err := storage.New(dataDir).LoadEnsemble(args[0])
	if err != nil {
		return err
	}

	band, err := analysis.ComponentBand(ens, component, bandLo, bandHi)
	if err != nil {
		return err
	}
	fmt.Println(viz.BandPlot(band, labelFor(meta.Labels, component), viz.DefaultPlotOptions()))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, ens, err := storage.New(dataDir).LoadEnsemble(args[0])
	if err != nil {
		return err
	}

	bands, err := analysis.Summarize(ens, bandLo, bandHi)
	if err != nil {
		return err
	}
	mean, std, err := analysis.DrawMoments(ens)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, bands, mean, std)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, ens, err := storage.New(dataDir).LoadEnsemble(args[0])
	if err != nil {
		return err
	}

	band, err := analysis.ComponentBand(ens, component, bandLo, bandHi)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s %s q%.0f-q%.0f", meta.ID, labelFor(meta.Labels, component), bandLo*100, bandHi*100)
	svg := export.BandToSVG(band, title, export.DefaultSVGOptions())

	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	return os.WriteFile(outFile, []byte(svg), 0644)
}
