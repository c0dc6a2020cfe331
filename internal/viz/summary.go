package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/bucksim/internal/analysis"
	"github.com/san-kum/bucksim/internal/experiment"
)

// Summary renders the parameters and headline figures of a run as a panel.
func Summary(wf *experiment.Waveform) string {
	p := wf.Params
	ts := p.Period()

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(fmt.Sprintf("buck converter · %s", wf.Model)) + "\n")

	s.WriteString(Row("Vin", fmt.Sprintf("%g V", p.Vin)) + "\n")
	s.WriteString(Row("L / C / R", fmt.Sprintf("%g H / %g F / %g Ω", p.L, p.C, p.R)) + "\n")
	s.WriteString(Row("Fs / D", fmt.Sprintf("%g Hz / %g", p.Fs, p.D)) + "\n")
	s.WriteString(Row("dt", fmt.Sprintf("%g s (%.4g per Ts)", p.Dt, p.StepsPerPeriod())) + "\n")
	s.WriteString(Row("samples", fmt.Sprintf("%d over %g s", wf.Len(), p.TEnd)) + "\n")
	s.WriteString(Separator(44) + "\n")

	if len(wf.Time) > 0 {
		mean := analysis.FinalPeriodMean(wf.Time, wf.OutputVoltage, ts)
		s.WriteString(Row("Voutmed", fmt.Sprintf("%.4f V", wf.MeanOutput)) + "\n")
		if wf.MeanOutput != 0 {
			s.WriteString(Row("final mean", fmt.Sprintf("%.4f V (%+.3f%%)", mean, 100*(mean-wf.MeanOutput)/wf.MeanOutput)) + "\n")
		} else {
			s.WriteString(Row("final mean", fmt.Sprintf("%.4f V", mean)) + "\n")
		}
		s.WriteString(Row("ripple", fmt.Sprintf("%.4f V", analysis.Ripple(wf.Time, wf.OutputVoltage, ts))) + "\n")
		s.WriteString(Row("overshoot", fmt.Sprintf("%.2f%%", 100*analysis.Overshoot(wf.OutputVoltage, wf.MeanOutput))) + "\n")
		if settle := analysis.SettlingTime(wf.Time, wf.OutputVoltage, wf.MeanOutput, 0.05); settle >= 0 {
			s.WriteString(Row("settling (5%)", fmt.Sprintf("%.3f ms", 1e3*settle)) + "\n")
		} else {
			s.WriteString(Row("settling (5%)", warning("not settled")) + "\n")
		}
	}

	if len(wf.Metrics) > 0 {
		s.WriteString(Separator(44) + "\n")
		names := make([]string, 0, len(wf.Metrics))
		for name := range wf.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s.WriteString(Row(name, fmt.Sprintf("%.6g", wf.Metrics[name])) + "\n")
		}
	}

	for _, err := range wf.Errors {
		s.WriteString(warning("! "+err.Error()) + "\n")
	}

	return GlassPanel.BorderForeground(CurrentTheme.Primary).Render(strings.TrimRight(s.String(), "\n"))
}

// Title renders a single styled heading line.
func Title(text string) string {
	return GradientTitle.Foreground(CurrentTheme.Secondary).Render(text)
}
