package main

import (
	"context"
	"fmt"
	"math/cmplx"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/bucksim/internal/analysis"
	"github.com/san-kum/bucksim/internal/experiment"
	"github.com/san-kum/bucksim/internal/export"
	"github.com/san-kum/bucksim/internal/optim"
	"github.com/san-kum/bucksim/internal/physics"
	"github.com/san-kum/bucksim/internal/storage"
	"github.com/san-kum/bucksim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, p, err := resolveParams(cmd)
	if err != nil {
		return err
	}
	adviseStability(p)

	exp := experiment.New(experiment.Config{
		Model:         cfg.Model,
		Integrator:    cfg.Integrator,
		Params:        p,
		ValidateState: cfg.Run.ValidateState,
	})
	if err := exp.SetupFromRegistry(experiment.NewRegistry()); err != nil {
		return err
	}

	var switches *experiment.TransitionObserver
	if cfg.Model == experiment.ModelBuck {
		switches = experiment.NewTransitionObserver(physics.NewBuck(p), logTransition)
		exp.GetSimulator().AddObserver(switches)
	}

	logger.Info("starting run", "model", cfg.Model, "samples", p.Samples(), "dt", p.Dt, "duty", p.D)
	start := time.Now()

	wf, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("run complete", "elapsed", time.Since(start), "samples", wf.Len())
	if switches != nil {
		logger.Info("switching", "transitions", switches.Count())
	}
	for _, e := range wf.Errors {
		logger.Warn("state left the finite range", "err", e)
	}

	fmt.Println(viz.Summary(wf))
	fmt.Println(viz.PlotWaveform(wf, viz.DefaultPlotOptions()))

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Integrator, wf)
		if err != nil {
			return err
		}
		logger.Info("saved run", "id", runID, "dir", dataDir)
		fmt.Printf("run id: %s\n", runID)
	}

	if figurePath != "" {
		if err := export.SaveFigure(figurePath, wf, export.FigureOptions{}); err != nil {
			return err
		}
		logger.Info("wrote figure", "path", figurePath)
	}
	if htmlPath != "" {
		if err := writeHTMLFile(htmlPath, wf); err != nil {
			return err
		}
		logger.Info("wrote html", "path", htmlPath)
	}

	return nil
}

func logTransition(tr experiment.Transition) {
	logger.Debug("switch", "t", tr.Time, "from", tr.From, "to", tr.To, "il", tr.IL, "vout", tr.Vout)
}

// adviseStability warns when dt sits outside the explicit Euler stability
// region of either topology. The run goes ahead regardless.
func adviseStability(p physics.BuckParams) {
	for _, ts := range analysis.EulerStability(p) {
		if ts.Stable {
			continue
		}
		logger.Warn("explicit Euler step is unstable",
			"topology", ts.Topology,
			"spectral_radius", ts.SpectralRadius,
			"dt", p.Dt,
			"max_stable_dt", analysis.MaxStableDt(p),
		)
	}
	if spp := p.StepsPerPeriod(); spp < 20 {
		logger.Warn("coarse step resolves the switching ripple poorly", "steps_per_period", spp)
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	_, p, err := resolveParams(cmd)
	if err != nil {
		return err
	}
	adviseStability(p)

	ctx := cmd.Context()
	wf, err := experiment.Simulate(ctx, p)
	if err != nil {
		return err
	}

	return viz.RunReplay(wf, func(next physics.BuckParams) (*experiment.Waveform, error) {
		logger.Debug("re-simulating", "duty", next.D)
		return experiment.Simulate(ctx, next)
	})
}

func runSweep(cmd *cobra.Command, args []string) error {
	_, p, err := resolveParams(cmd)
	if err != nil {
		return err
	}

	dts := make([]float64, 0, len(sweepSteps))
	for _, n := range sweepSteps {
		if n <= 0 {
			return fmt.Errorf("steps per period must be positive, got %d", n)
		}
		dts = append(dts, p.Period()/float64(n))
	}

	logger.Info("starting sweep", "runs", len(dts), "duty", p.D)
	start := time.Now()

	points, err := sweep(cmd.Context(), p, dts)
	if err != nil {
		return err
	}
	logger.Info("sweep complete", "elapsed", time.Since(start))

	fmt.Println(viz.Title(fmt.Sprintf("step-size sweep, Voutmed = %.4g V", p.MeanOutput())))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS/TS\tSAMPLES\tFINAL MEAN\tDEVIATION\tRIPPLE\tPEAK")
	for _, pt := range points {
		fmt.Fprintf(w, "%.4g\t%.4g\t%d\t%.5f\t%.5f\t%.4f\t%.3f\n",
			pt.Dt, pt.StepsPerPeriod, pt.Samples, pt.FinalMean, pt.Deviation, pt.Ripple, pt.PeakOutput)
	}
	return w.Flush()
}

func sweep(ctx context.Context, p physics.BuckParams, dts []float64) ([]experiment.SweepPoint, error) {
	for _, d := range dts {
		q := p
		q.Dt = d
		adviseStability(q)
	}
	return experiment.Sweep(ctx, p, dts)
}

func runTune(cmd *cobra.Command, args []string) error {
	_, p, err := resolveParams(cmd)
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(optim.DutyAxis(optim.Range(dutyFrom, dutyTo, dutyStep)...))
	logger.Info("starting duty search", "target", target, "candidates", g.Size())
	start := time.Now()

	best, err := g.Search(cmd.Context(), p, optim.TargetDeviation(target))
	if err != nil {
		return err
	}
	logger.Info("duty search complete", "elapsed", time.Since(start))

	fmt.Println(viz.Title(fmt.Sprintf("duty ratio for %.4g V", target)))
	fmt.Println(viz.Row("best D", fmt.Sprintf("%g", best.Params.D)))
	fmt.Println(viz.Row("ideal D", fmt.Sprintf("%.4g", target/p.Vin)))
	fmt.Println(viz.Row("deviation", fmt.Sprintf("%.5f V", best.Score)))
	return nil
}

func showStability(cmd *cobra.Command, args []string) error {
	_, p, err := resolveParams(cmd)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title("explicit Euler stability"))
	fmt.Println(viz.Row("corner freq", fmt.Sprintf("%.4g Hz", p.CornerFrequency())))
	fmt.Println(viz.Row("L/R", fmt.Sprintf("%.4g s", p.InductorTimeConstant())))
	fmt.Println(viz.Row("RC", fmt.Sprintf("%.4g s", p.RCTimeConstant())))
	fmt.Println(viz.Row("dt", fmt.Sprintf("%.4g s", p.Dt)))
	fmt.Println(viz.Row("max stable dt", fmt.Sprintf("%.4g s", analysis.MaxStableDt(p))))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOPOLOGY\tEIGENVALUES OF I+dt*A\tSPECTRAL RADIUS\tSTABLE")
	for _, ts := range analysis.EulerStability(p) {
		eigs := make([]string, len(ts.Eigenvalues))
		for i, v := range ts.Eigenvalues {
			eigs[i] = formatComplex(v)
		}
		fmt.Fprintf(w, "%s\t%s\t%.9f\t%v\n", ts.Topology, strings.Join(eigs, ", "), ts.SpectralRadius, ts.Stable)
	}
	return w.Flush()
}

func formatComplex(v complex128) string {
	if imag(v) == 0 {
		return fmt.Sprintf("%.9f", real(v))
	}
	return fmt.Sprintf("%.6f∠%.4f", cmplx.Abs(v), cmplx.Phase(v))
}
