package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/bucksim/internal/experiment"
)

var (
	traceColor     = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	referenceColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// FigureOptions sizes the figure. Zero values take the defaults.
type FigureOptions struct {
	Width  vg.Length
	Height vg.Length
	Title  string
}

func (o FigureOptions) withDefaults(wf *experiment.Waveform) FigureOptions {
	if o.Width == 0 {
		o.Width = 10 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 5 * vg.Inch
	}
	if o.Title == "" {
		o.Title = fmt.Sprintf("Buck converter output voltage (D = %g, Vin = %g V)", wf.Params.D, wf.Params.Vin)
	}
	return o
}

// NewFigure plots vout against time in milliseconds with a dashed
// Voutmed = D*Vin reference line, a grid and a legend.
func NewFigure(wf *experiment.Waveform, title string) (*plot.Plot, error) {
	if wf.Len() == 0 {
		return nil, fmt.Errorf("export: empty waveform")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t (ms)"
	p.Y.Label.Text = "vout (V)"
	stylePlot(p)
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, wf.Len())
	for i := range pts {
		pts[i].X = 1e3 * wf.Time[i]
		pts[i].Y = wf.OutputVoltage[i]
	}
	trace, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	trace.LineStyle.Width = vg.Points(1)
	trace.LineStyle.Color = traceColor

	ref, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: wf.MeanOutput},
		{X: 1e3 * wf.FinalTime(), Y: wf.MeanOutput},
	})
	if err != nil {
		return nil, err
	}
	ref.LineStyle.Width = vg.Points(1.5)
	ref.LineStyle.Color = referenceColor
	ref.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p.Add(trace, ref)
	p.Legend.Add("vout", trace)
	p.Legend.Add(fmt.Sprintf("Voutmed = %.4g V", wf.MeanOutput), ref)
	p.Legend.Top = false
	p.Legend.Left = false

	return p, nil
}

// SaveFigure renders the figure to path. The extension picks the format:
// png, jpg, tif, svg, pdf or eps.
func SaveFigure(path string, wf *experiment.Waveform, opts FigureOptions) error {
	opts = opts.withDefaults(wf)
	p, err := NewFigure(wf, opts.Title)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("save figure %s: %w", path, err)
	}
	return nil
}

// WriteFigure renders the figure in the named format to w.
func WriteFigure(w io.Writer, format string, wf *experiment.Waveform, opts FigureOptions) error {
	opts = opts.withDefaults(wf)
	p, err := NewFigure(wf, opts.Title)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, strings.ToLower(format))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)

	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(6)
	p.Y.Padding = vg.Points(6)

	p.X.Tick.Label.Font.Size = vg.Points(10)
	p.Y.Tick.Label.Font.Size = vg.Points(10)

	p.X.Tick.Marker = limitedTicker(11, "%.2f")
	p.Y.Tick.Marker = limitedTicker(9, "%.1f")
}
