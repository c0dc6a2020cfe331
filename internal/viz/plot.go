package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bucksim/internal/experiment"
)

type Signal int

const (
	OutputVoltage Signal = iota
	InductorCurrent
)

func (s Signal) String() string {
	if s == InductorCurrent {
		return "iL"
	}
	return "vout"
}

func (s Signal) unit() string {
	if s == InductorCurrent {
		return "A"
	}
	return "V"
}

func (s Signal) values(wf *experiment.Waveform) []float64 {
	if s == InductorCurrent {
		return wf.InductorCurrent
	}
	return wf.OutputVoltage
}

type PlotOptions struct {
	Width  int
	Height int
	Signal Signal
	// Upto limits the plot to the first Upto samples; zero plots everything.
	Upto int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 72, Height: 14}
}

// PlotWaveform charts one signal against the sample index. Output voltage
// plots carry a horizontal Voutmed = D*Vin reference.
func PlotWaveform(wf *experiment.Waveform, opts PlotOptions) string {
	values := opts.Signal.values(wf)
	if opts.Upto > 0 && opts.Upto < len(values) {
		values = values[:opts.Upto]
	}
	if len(values) < 2 {
		return Subtle.Render("(no samples)")
	}

	trace := Downsample(values, 4*opts.Width)
	series := [][]float64{trace}
	colors := []asciigraph.AnsiColor{CurrentTheme.Trace}

	caption := fmt.Sprintf("%s (%s) over t = 0..%.3g ms", opts.Signal, opts.Signal.unit(), 1e3*wf.Time[len(values)-1])
	if opts.Signal == OutputVoltage {
		series = append(series, constant(wf.MeanOutput, len(trace)))
		colors = append(colors, CurrentTheme.Reference)
		caption += fmt.Sprintf(", Voutmed = %.4g V", wf.MeanOutput)
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
}

// Downsample reduces values to at most n points by keeping the extreme
// sample of each bucket, alternating max and min so switching ripple
// survives the reduction.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}

	out := make([]float64, n)
	bucket := float64(len(values)) / float64(n)
	for i := range out {
		lo := int(float64(i) * bucket)
		hi := min(int(float64(i+1)*bucket), len(values))
		pick := values[lo]
		for _, v := range values[lo:hi] {
			if (i%2 == 0 && v > pick) || (i%2 == 1 && v < pick) {
				pick = v
			}
		}
		out[i] = pick
	}
	return out
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
