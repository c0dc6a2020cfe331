package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/bucksim/internal/experiment"
)

type ExportData struct {
	Model           string             `json:"model"`
	Params          ParamsRecord       `json:"params"`
	Samples         int                `json:"samples"`
	MeanOutput      float64            `json:"mean_output"`
	Time            []float64          `json:"time"`
	InductorCurrent []float64          `json:"il"`
	OutputVoltage   []float64          `json:"vout"`
	Metrics         map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, wf *experiment.Waveform) error {
	data := ExportData{
		Model:           wf.Model,
		Params:          recordParams(wf.Params),
		Samples:         wf.Len(),
		MeanOutput:      wf.MeanOutput,
		Time:            wf.Time,
		InductorCurrent: wf.InductorCurrent,
		OutputVoltage:   wf.OutputVoltage,
		Metrics:         wf.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
