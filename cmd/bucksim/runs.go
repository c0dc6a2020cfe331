package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/bucksim/internal/experiment"
	"github.com/san-kum/bucksim/internal/export"
	"github.com/san-kum/bucksim/internal/storage"
	"github.com/san-kum/bucksim/internal/viz"
)

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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tD\tDT\tSAMPLES\tFINAL MEAN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3g\t%.4gs\t%d\t%.4f\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Params.D,
			run.Params.Dt,
			run.Samples,
			run.Metrics["vout_mean_final_period"],
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*experiment.Waveform, error) {
	wf, err := storage.New(dataDir).LoadWaveform(runID)
	if err != nil {
		return nil, err
	}
	if wf.Len() == 0 {
		return nil, fmt.Errorf("no data to plot")
	}
	return wf, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	wf, err := loadRun(args[0])
	if err != nil {
		return err
	}

	var signals []viz.Signal
	switch signalName {
	case "vout":
		signals = []viz.Signal{viz.OutputVoltage}
	case "il":
		signals = []viz.Signal{viz.InductorCurrent}
	case "both":
		signals = []viz.Signal{viz.OutputVoltage, viz.InductorCurrent}
	default:
		return fmt.Errorf("unknown signal %q (vout, il or both)", signalName)
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Println(viz.Summary(wf))
	for _, s := range signals {
		opts := viz.DefaultPlotOptions()
		opts.Signal = s
		fmt.Println(viz.PlotWaveform(wf, opts))
		fmt.Println()
	}
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	wf, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := export.SaveFigure(args[1], wf, export.FigureOptions{}); err != nil {
		return err
	}
	logger.Info("wrote figure", "run", args[0], "path", args[1])
	return nil
}

func htmlRun(cmd *cobra.Command, args []string) error {
	wf, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := writeHTMLFile(args[1], wf); err != nil {
		return err
	}
	logger.Info("wrote html", "run", args[0], "path", args[1])
	return nil
}

func writeHTMLFile(path string, wf *experiment.Waveform) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteHTML(f, wf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	wf, err := storage.New(dataDir).LoadWaveform(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, wf)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	wf, err := storage.New(dataDir).LoadWaveform(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, wf)
}
