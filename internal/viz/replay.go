package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/bucksim/internal/experiment"
	"github.com/san-kum/bucksim/internal/physics"
)

const (
	frameInterval = time.Second / 30
	replayFrames  = 300
	dutyStep      = 0.05
)

type TickMsg time.Time

// ResimMsg carries the outcome of a re-simulation started from the replay.
type ResimMsg struct {
	Waveform *experiment.Waveform
	Err      error
}

// Resimulator produces a fresh waveform when a parameter is changed from the
// replay. experiment.Simulate bound to a context satisfies it.
type Resimulator func(physics.BuckParams) (*experiment.Waveform, error)

// Replay reveals a completed waveform a few samples per frame. It only reads
// the waveform it holds; changing the duty ratio replaces it wholesale.
type Replay struct {
	wf       *experiment.Waveform
	resim    Resimulator
	cursor   int
	stride   int
	running  bool
	signal   Signal
	showHelp bool
	width    int
	pending  bool
	err      error
}

func NewReplay(wf *experiment.Waveform, resim Resimulator) Replay {
	return Replay{
		wf:      wf,
		resim:   resim,
		stride:  defaultStride(wf),
		running: true,
		width:   72,
	}
}

func defaultStride(wf *experiment.Waveform) int {
	return max(1, wf.Len()/replayFrames)
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Replay) Init() tea.Cmd {
	return tick()
}

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.cursor = 0
			m.running = true
		case "+", "=":
			m.stride *= 2
		case "-", "_":
			m.stride = max(1, m.stride/2)
		case "s":
			if m.signal == OutputVoltage {
				m.signal = InductorCurrent
			} else {
				m.signal = OutputVoltage
			}
		case "t":
			CurrentTheme = NextTheme(CurrentTheme.Name)
		case "up", "k":
			cmd := m.adjustDuty(dutyStep)
			return m, cmd
		case "down", "j":
			cmd := m.adjustDuty(-dutyStep)
			return m, cmd
		case "?":
			m.showHelp = !m.showHelp
		}
	case ResimMsg:
		m.pending = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.wf, m.err = msg.Waveform, nil
		m.cursor = 0
		m.stride = defaultStride(msg.Waveform)
		m.running = true
	case tea.WindowSizeMsg:
		m.width = max(20, msg.Width-12)
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Replay) advance() {
	m.cursor = min(m.cursor+m.stride, m.wf.Len())
	if m.cursor == m.wf.Len() {
		m.running = false
	}
}

// adjustDuty moves D by delta, rounded to 0.01, and returns a command that
// re-runs the model off the event loop. Values outside (0, 1) are ignored, as
// is any change while a previous one is still running.
func (m *Replay) adjustDuty(delta float64) tea.Cmd {
	if m.resim == nil || m.pending {
		return nil
	}
	p := m.wf.Params
	d := math.Round((p.D+delta)*100) / 100
	if d <= 0 || d >= 1 {
		return nil
	}
	p.D = d

	m.pending = true
	resim := m.resim
	return func() tea.Msg {
		wf, err := resim(p)
		return ResimMsg{Waveform: wf, Err: err}
	}
}

func (m Replay) Waveform() *experiment.Waveform { return m.wf }

func (m Replay) View() string {
	var s strings.Builder
	p := m.wf.Params

	s.WriteString(Title(fmt.Sprintf("BUCK CONVERTER  D=%.2f  Vin=%g V", p.D, p.Vin)) + "\n")

	n := m.wf.Len()
	switch {
	case m.pending:
		s.WriteString(StatusPaused.Render("RESIMULATING"))
	case m.cursor >= n:
		s.WriteString(StatusRunning.Render("COMPLETE"))
	case m.running:
		s.WriteString(StatusRunning.Render(fmt.Sprintf("REPLAYING ×%d", m.stride)))
	default:
		s.WriteString(StatusPaused.Render("PAUSED"))
	}
	s.WriteString("  " + ProgressBar(float64(m.cursor)/float64(max(n, 1)), 30) + "\n\n")

	if m.cursor >= 2 {
		s.WriteString(PlotWaveform(m.wf, PlotOptions{
			Width:  m.width,
			Height: 12,
			Signal: m.signal,
			Upto:   m.cursor,
		}) + "\n\n")
	}

	if m.cursor > 0 {
		k := m.cursor - 1
		t := m.wf.Time[k]
		s.WriteString(Row("t", fmt.Sprintf("%.4f ms", 1e3*t)) + "\n")
		s.WriteString(Row("iL", fmt.Sprintf("%.4f A", m.wf.InductorCurrent[k])) + "\n")
		s.WriteString(Row("vout", fmt.Sprintf("%.4f V", m.wf.OutputVoltage[k])) + "\n")
		s.WriteString(Row("switch", physics.Resolve(t, p.Period(), p.D).String()) + "\n")

		from := max(0, m.cursor-int(math.Round(p.StepsPerPeriod())))
		s.WriteString(Row("iL, last Ts", SparklineChart(m.wf.InductorCurrent[from:m.cursor], 30)) + "\n")
	}

	if m.err != nil {
		s.WriteString(warning(m.err.Error()) + "\n")
	}

	if m.showHelp {
		s.WriteString("\n" + hint("Space pause · R restart · +/- speed · ↑/↓ duty · S signal · T theme · Q quit"))
	} else {
		s.WriteString("\n" + hint("? help"))
	}

	return GlassPanel.BorderForeground(CurrentTheme.Primary).Render(s.String())
}

// RunReplay blocks until the user quits the replay.
func RunReplay(wf *experiment.Waveform, resim Resimulator) error {
	_, err := tea.NewProgram(NewReplay(wf, resim), tea.WithAltScreen()).Run()
	return err
}
