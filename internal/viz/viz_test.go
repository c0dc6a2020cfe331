package viz

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/bucksim/internal/experiment"
	"github.com/san-kum/bucksim/internal/physics"
)

func nominalWaveform(t *testing.T) *experiment.Waveform {
	t.Helper()
	wf, err := experiment.Simulate(context.Background(), physics.DefaultBuckParams())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return wf
}

func TestDownsample(t *testing.T) {
	values := []float64{0, 5, 1, -3, 2, 2, 9, 0}

	if got := Downsample(values, 10); len(got) != len(values) {
		t.Errorf("short input should pass through, got %d", len(got))
	}

	got := Downsample(values, 4)
	want := []float64{5, -3, 2, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestPlotWaveform(t *testing.T) {
	wf := nominalWaveform(t)

	out := PlotWaveform(wf, DefaultPlotOptions())
	if !strings.Contains(out, "Voutmed = 20 V") {
		t.Errorf("vout plot should carry the reference caption:\n%s", out)
	}

	opts := DefaultPlotOptions()
	opts.Signal = InductorCurrent
	out = PlotWaveform(wf, opts)
	if strings.Contains(out, "Voutmed") {
		t.Error("iL plot should not carry the vout reference")
	}
	if !strings.Contains(out, "iL (A)") {
		t.Errorf("missing iL caption:\n%s", out)
	}
}

func TestPlotWaveformTooShort(t *testing.T) {
	wf := nominalWaveform(t)
	opts := DefaultPlotOptions()
	opts.Upto = 1
	if out := PlotWaveform(wf, opts); !strings.Contains(out, "no samples") {
		t.Errorf("expected placeholder, got %q", out)
	}
}

func TestSummary(t *testing.T) {
	wf := nominalWaveform(t)
	out := Summary(wf)

	for _, want := range []string{"Voutmed", "20.0000 V", "final mean", "ripple", "20000 over"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestReplayAdvancesToCompletion(t *testing.T) {
	wf := nominalWaveform(t)
	m := NewReplay(wf, nil)

	if m.stride != wf.Len()/replayFrames {
		t.Fatalf("stride = %d", m.stride)
	}

	var model tea.Model = m
	for i := 0; i < replayFrames+5; i++ {
		model, _ = model.Update(TickMsg{})
	}

	r := model.(Replay)
	if r.cursor != wf.Len() {
		t.Errorf("cursor = %d, want %d", r.cursor, wf.Len())
	}
	if r.running {
		t.Error("replay should stop at the end of the waveform")
	}
	if !strings.Contains(r.View(), "COMPLETE") {
		t.Error("view should report completion")
	}
}

func TestReplayKeys(t *testing.T) {
	wf := nominalWaveform(t)
	var model tea.Model = NewReplay(wf, nil)

	press := func(key string) {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	}

	press(" ")
	if model.(Replay).running {
		t.Error("space should pause")
	}
	model, _ = model.Update(TickMsg{})
	if model.(Replay).cursor != 0 {
		t.Error("paused replay must not advance")
	}

	stride := model.(Replay).stride
	press("+")
	if model.(Replay).stride != 2*stride {
		t.Error("+ should double the stride")
	}

	press("s")
	if model.(Replay).signal != InductorCurrent {
		t.Error("s should switch to iL")
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c should quit")
	}
}

// pressDuty sends key to the replay and runs the command it returns, the
// way the bubbletea runtime would, feeding the resulting message back.
func pressDuty(t *testing.T, model tea.Model, key tea.KeyType) (tea.Model, tea.Model) {
	t.Helper()
	model, cmd := model.Update(tea.KeyMsg{Type: key})
	if cmd == nil {
		t.Fatal("duty change should return a command")
	}
	during := model
	msg, ok := cmd().(ResimMsg)
	if !ok {
		t.Fatal("command should produce a ResimMsg")
	}
	model, _ = model.Update(msg)
	return during, model
}

func TestReplayDutyResimulates(t *testing.T) {
	wf := nominalWaveform(t)

	var got physics.BuckParams
	calls := 0
	resim := func(p physics.BuckParams) (*experiment.Waveform, error) {
		got = p
		calls++
		return &experiment.Waveform{Params: p, Time: []float64{0}, InductorCurrent: []float64{0}, OutputVoltage: []float64{0}}, nil
	}

	during, model := pressDuty(t, NewReplay(wf, resim), tea.KeyUp)

	r := during.(Replay)
	if calls != 0 {
		t.Error("the model must not be re-run inside Update")
	}
	if !r.pending || r.Waveform() != wf {
		t.Error("replay should keep the old waveform while re-simulating")
	}
	if !strings.Contains(r.View(), "RESIMULATING") {
		t.Error("view should report the pending re-simulation")
	}
	if _, cmd := during.Update(tea.KeyMsg{Type: tea.KeyUp}); cmd != nil {
		t.Error("a second change while pending should be ignored")
	}

	if got.D != 0.45 {
		t.Errorf("duty = %g, want 0.45", got.D)
	}
	if model.(Replay).Waveform().Params.D != 0.45 {
		t.Error("replay should hold the new waveform")
	}
	if model.(Replay).pending {
		t.Error("pending should clear once the result arrives")
	}
}

func TestReplayDutyErrorKeepsWaveform(t *testing.T) {
	wf := nominalWaveform(t)
	resim := func(p physics.BuckParams) (*experiment.Waveform, error) {
		return nil, errors.New("boom")
	}

	_, model := pressDuty(t, NewReplay(wf, resim), tea.KeyDown)

	r := model.(Replay)
	if r.Waveform() != wf {
		t.Error("failed resimulation must keep the current waveform")
	}
	if r.err == nil {
		t.Error("error should be shown")
	}
}

func TestReplayDutyLimits(t *testing.T) {
	wf := nominalWaveform(t)
	wf.Params.D = 0.99
	resim := func(p physics.BuckParams) (*experiment.Waveform, error) {
		t.Fatal("duty outside (0, 1) must not re-simulate")
		return nil, nil
	}

	if _, cmd := NewReplay(wf, resim).Update(tea.KeyMsg{Type: tea.KeyUp}); cmd != nil {
		t.Error("expected no command at the duty limit")
	}
}

func TestSummaryZeroSource(t *testing.T) {
	p := physics.DefaultBuckParams()
	p.Vin = 0
	wf, err := experiment.Simulate(context.Background(), p)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	out := Summary(wf)
	if strings.Contains(out, "NaN") || strings.Contains(out, "Inf") {
		t.Errorf("summary with Vin = 0 should have no relative figure:\n%s", out)
	}
	if !strings.Contains(out, "final mean") {
		t.Error("summary should still report the final mean")
	}
}

func TestThemes(t *testing.T) {
	defer func(prev Theme) { CurrentTheme = prev }(CurrentTheme)

	names := ThemeNames()
	for i, name := range names {
		if next := NextTheme(name); next.Name != names[(i+1)%len(names)] {
			t.Errorf("NextTheme(%s) = %s", name, next.Name)
		}
	}

	if err := SetTheme("retro"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if CurrentTheme.Name != "retro" {
		t.Errorf("current theme = %s, want retro", CurrentTheme.Name)
	}

	err := SetTheme("unknown")
	if err == nil || !strings.Contains(err.Error(), "scope") {
		t.Errorf("unknown theme should fail and list the choices, got %v", err)
	}
	if CurrentTheme.Name != "retro" {
		t.Error("unknown theme must leave the current theme in place")
	}
}
