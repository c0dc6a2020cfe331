package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/bucksim/internal/experiment"
	"github.com/san-kum/bucksim/internal/physics"
)

const (
	metadataFile = "metadata.json"
	waveformFile = "waveform.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var csvHeader = []string{"time", "il", "vout"}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// ParamsRecord is the on-disk form of physics.BuckParams.
type ParamsRecord struct {
	Vin  float64 `json:"vin"`
	L    float64 `json:"inductance"`
	R    float64 `json:"resistance"`
	C    float64 `json:"capacitance"`
	Fs   float64 `json:"frequency"`
	D    float64 `json:"duty"`
	TEnd float64 `json:"duration"`
	Dt   float64 `json:"dt"`
}

func recordParams(p physics.BuckParams) ParamsRecord {
	return ParamsRecord{Vin: p.Vin, L: p.L, R: p.R, C: p.C, Fs: p.Fs, D: p.D, TEnd: p.TEnd, Dt: p.Dt}
}

func (r ParamsRecord) Params() physics.BuckParams {
	return physics.BuckParams{Vin: r.Vin, L: r.L, R: r.R, C: r.C, Fs: r.Fs, D: r.D, TEnd: r.TEnd, Dt: r.Dt}
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Params     ParamsRecord       `json:"params"`
	Samples    int                `json:"samples"`
	MeanOutput float64            `json:"mean_output"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
}

// Save writes the waveform under a new run directory and returns its id.
func (s *Store) Save(integrator string, wf *experiment.Waveform) (string, error) {
	now := s.now()
	runID := fmt.Sprintf("%s_%d", wf.Model, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Model:      wf.Model,
		Integrator: integrator,
		Timestamp:  now,
		Params:     recordParams(wf.Params),
		Samples:    wf.Len(),
		MeanOutput: wf.MeanOutput,
		Metrics:    wf.Metrics,
	}
	for _, err := range wf.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	if err := writeFile(filepath.Join(runDir, waveformFile), func(w io.Writer) error {
		return WriteCSV(w, wf)
	}); err != nil {
		return "", fmt.Errorf("write waveform: %w", err)
	}

	return runID, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadWaveform rebuilds a saved run. Recorded step errors come back as
// plain messages.
func (s *Store) LoadWaveform(runID string) (*experiment.Waveform, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, waveformFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wf, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read waveform %s: %w", runID, err)
	}

	wf.Model = meta.Model
	wf.Params = meta.Params.Params()
	wf.MeanOutput = meta.MeanOutput
	wf.Metrics = meta.Metrics
	for _, msg := range meta.Errors {
		wf.Errors = append(wf.Errors, errors.New(msg))
	}
	return wf, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the time,il,vout table at full precision.
func WriteCSV(w io.Writer, wf *experiment.Waveform) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	row := make([]string, 3)
	for i := range wf.Time {
		row[0] = formatFloat(wf.Time[i])
		row[1] = formatFloat(wf.InductorCurrent[i])
		row[2] = formatFloat(wf.OutputVoltage[i])
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Only the sequences are set.
func ReadCSV(r io.Reader) (*experiment.Waveform, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %q, want %q", header[i], name)
		}
	}

	wf := &experiment.Waveform{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var vals [3]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		wf.Time = append(wf.Time, vals[0])
		wf.InductorCurrent = append(wf.InductorCurrent, vals[1])
		wf.OutputVoltage = append(wf.OutputVoltage, vals[2])
	}
	return wf, nil
}
