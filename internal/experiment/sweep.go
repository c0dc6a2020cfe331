package experiment

import (
	"context"
	"sort"

	"github.com/san-kum/bucksim/internal/analysis"
	"github.com/san-kum/bucksim/internal/physics"
	"golang.org/x/sync/errgroup"
)

// SweepPoint summarizes one run of a step-size sweep.
type SweepPoint struct {
	Dt             float64
	StepsPerPeriod float64
	Samples        int
	FinalMean      float64
	Deviation      float64
	Ripple         float64
	PeakOutput     float64
}

// Sweep runs base once per step size. Runs are independent and execute
// concurrently; each one is still a serial scan. Points come back ordered by
// increasing dt.
func Sweep(ctx context.Context, base physics.BuckParams, dts []float64) ([]SweepPoint, error) {
	points := make([]SweepPoint, len(dts))

	g, ctx := errgroup.WithContext(ctx)
	for i, dt := range dts {
		g.Go(func() error {
			p := base
			p.Dt = dt

			wf, err := Simulate(ctx, p)
			if err != nil {
				return err
			}

			ts := p.Period()
			points[i] = SweepPoint{
				Dt:             dt,
				StepsPerPeriod: p.StepsPerPeriod(),
				Samples:        wf.Len(),
				FinalMean:      analysis.FinalPeriodMean(wf.Time, wf.OutputVoltage, ts),
				Deviation:      analysis.Deviation(wf.Time, wf.OutputVoltage, ts, p.MeanOutput()),
				Ripple:         analysis.Ripple(wf.Time, wf.OutputVoltage, ts),
				PeakOutput:     peakAbs(wf.OutputVoltage),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(points, func(a, b int) bool { return points[a].Dt < points[b].Dt })
	return points, nil
}

func peakAbs(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
