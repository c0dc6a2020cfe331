package experiment

import (
	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/physics"
)

// Waveform is the completed trajectory of one run, index-aligned with Time.
// Consumers treat it as read-only.
type Waveform struct {
	Model           string
	Params          physics.BuckParams
	Time            []float64
	InductorCurrent []float64
	OutputVoltage   []float64
	MeanOutput      float64
	Metrics         map[string]float64
	Errors          []error
}

func newWaveform(model string, p physics.BuckParams, r *dynamo.Result) *Waveform {
	return &Waveform{
		Model:           model,
		Params:          p,
		Time:            r.Times,
		InductorCurrent: r.Component(physics.InductorCurrent),
		OutputVoltage:   r.Component(physics.OutputVoltage),
		MeanOutput:      p.MeanOutput(),
		Metrics:         r.Metrics,
		Errors:          r.Errors,
	}
}

func (w *Waveform) Len() int { return len(w.Time) }

// FinalTime is the last sample instant, (N-1)*dt.
func (w *Waveform) FinalTime() float64 {
	if len(w.Time) == 0 {
		return 0
	}
	return w.Time[len(w.Time)-1]
}
