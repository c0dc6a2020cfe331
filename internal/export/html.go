package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/san-kum/bucksim/internal/experiment"
)

// WriteHTML renders an interactive page with one zoomable chart for vout
// (plus its Voutmed reference) and one for iL.
func WriteHTML(w io.Writer, wf *experiment.Waveform) error {
	if wf.Len() == 0 {
		return fmt.Errorf("export: empty waveform")
	}

	xs := make([]string, wf.Len())
	for i, t := range wf.Time {
		xs[i] = fmt.Sprintf("%.5f", 1e3*t)
	}

	vout := newLine("Output voltage", fmt.Sprintf("D = %g, Vin = %g V, Fs = %g Hz", wf.Params.D, wf.Params.Vin, wf.Params.Fs), "vout (V)")
	vout.SetXAxis(xs).
		AddSeries("vout", lineData(wf.OutputVoltage)).
		AddSeries("Voutmed", lineData(constant(wf.MeanOutput, wf.Len())),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: "#d62728"}),
		)

	il := newLine("Inductor current", fmt.Sprintf("L = %g H, R = %g Ω, C = %g F", wf.Params.L, wf.Params.R, wf.Params.C), "iL (A)")
	il.SetXAxis(xs).AddSeries("iL", lineData(wf.InductorCurrent))

	page := components.NewPage()
	page.AddCharts(vout, il)
	return page.Render(w)
}

func newLine(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
			Width: "1200px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Right: "10",
			Top:   "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        "t (ms)",
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  yName,
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      80,
			End:        100,
			XAxisIndex: []int{0},
		}, opts.DataZoom{
			Type:       "slider",
			Start:      80,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(false),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	return line
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i] = opts.LineData{Value: v}
	}
	return items
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
