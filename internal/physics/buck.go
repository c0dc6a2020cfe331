package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/bucksim/internal/dynamo"
)

const (
	DefaultVin         = 50.0
	DefaultInductance  = 1.2e-3
	DefaultResistance  = 4.0
	DefaultCapacitance = 15.6e-6
	DefaultFrequency   = 20e3
	DefaultDuty        = 0.4
	DefaultDuration    = 5e-3
	DefaultStepsPerTs  = 200
)

// State indices of the buck converter.
const (
	InductorCurrent = 0
	OutputVoltage   = 1
)

// BuckParams is the fixed parameter set of one run.
type BuckParams struct {
	Vin  float64 // source voltage (V)
	L    float64 // inductance (H)
	R    float64 // load resistance (Ω)
	C    float64 // output capacitance (F)
	Fs   float64 // switching frequency (Hz)
	D    float64 // duty ratio, 0 < D < 1
	TEnd float64 // simulated time (s)
	Dt   float64 // Euler step (s)
}

func DefaultBuckParams() BuckParams {
	p := BuckParams{
		Vin:  DefaultVin,
		L:    DefaultInductance,
		R:    DefaultResistance,
		C:    DefaultCapacitance,
		Fs:   DefaultFrequency,
		D:    DefaultDuty,
		TEnd: DefaultDuration,
	}
	return p.WithStepsPerPeriod(DefaultStepsPerTs)
}

// WithStepsPerPeriod returns a copy with Dt = Ts/n.
func (p BuckParams) WithStepsPerPeriod(n int) BuckParams {
	p.Dt = p.Period() / float64(n)
	return p
}

func (p BuckParams) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"L", p.L},
		{"R", p.R},
		{"C", p.C},
		{"Fs", p.Fs},
		{"t_end", p.TEnd},
		{"dt", p.Dt},
	}
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", dynamo.ErrParameterBounds, f.name, f.value)
		}
	}
	if !dynamo.GridFits(p.TEnd, p.Dt) {
		return fmt.Errorf("%w: dt %g is too small for t_end %g, the grid would exceed %d samples",
			dynamo.ErrParameterBounds, p.Dt, p.TEnd, dynamo.MaxSamples)
	}
	if !(p.D > 0 && p.D < 1) {
		return fmt.Errorf("%w: duty ratio D must be in (0, 1), got %g", dynamo.ErrParameterBounds, p.D)
	}
	if math.IsNaN(p.Vin) || math.IsInf(p.Vin, 0) {
		return fmt.Errorf("%w: Vin must be finite, got %g", dynamo.ErrParameterBounds, p.Vin)
	}
	return nil
}

// Period is the switching period Ts = 1/Fs.
func (p BuckParams) Period() float64 { return 1 / p.Fs }

// OnTime is the closed-switch part of each period, D*Ts.
func (p BuckParams) OnTime() float64 { return p.D * p.Period() }

// MeanOutput is the ideal steady-state mean output voltage D*Vin.
func (p BuckParams) MeanOutput() float64 { return p.D * p.Vin }

// Samples is the length of the time grid, ceil(TEnd/Dt). It is only
// meaningful once Validate has passed.
func (p BuckParams) Samples() int { return int(math.Ceil(p.TEnd / p.Dt)) }

// StepsPerPeriod is Ts/Dt, not necessarily an integer.
func (p BuckParams) StepsPerPeriod() float64 { return p.Period() / p.Dt }

// CornerFrequency is the LC filter resonance 1/(2π√(LC)) in Hz.
func (p BuckParams) CornerFrequency() float64 {
	return 1 / (2 * math.Pi * math.Sqrt(p.L*p.C))
}

func (p BuckParams) InductorTimeConstant() float64 { return p.L / p.R }

func (p BuckParams) RCTimeConstant() float64 { return p.R * p.C }

func (p BuckParams) SimConfig() dynamo.Config {
	return dynamo.Config{Dt: p.Dt, Duration: p.TEnd}
}

// Topology is the circuit configuration selected by the switch.
type Topology int

const (
	// On: switch closed, diode reverse-biased.
	On Topology = iota
	// Off: switch open, diode freewheeling.
	Off
)

func (tp Topology) String() string {
	switch tp {
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return fmt.Sprintf("topology(%d)", int(tp))
	}
}

// Resolve classifies time t as On when its phase t mod ts lies in [0, d*ts).
// A phase of exactly d*ts is Off.
func Resolve(t, ts, d float64) Topology {
	if math.Mod(t, ts) < d*ts {
		return On
	}
	return Off
}

// Buck is the ideal buck converter in continuous conduction.
// State is [iL, vout]; it takes no control input.
//
// In the On topology the capacitor current is the load current alone
// (iC = -vout/R); the inductor feeds the output node only while Off.
type Buck struct {
	Params BuckParams
	ts     float64
}

func NewBuck(p BuckParams) *Buck {
	return &Buck{Params: p, ts: p.Period()}
}

func (b *Buck) StateDim() int   { return 2 }
func (b *Buck) ControlDim() int { return 0 }

func (b *Buck) Topology(t float64) Topology {
	return Resolve(t, b.ts, b.Params.D)
}

func (b *Buck) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	iL, vout := x[InductorCurrent], x[OutputVoltage]
	p := &b.Params

	var vL, iC float64
	switch b.Topology(t) {
	case On:
		vL = p.Vin - vout
		iC = -vout / p.R
	case Off:
		vL = -vout
		iC = iL - vout/p.R
	}

	return dynamo.State{vL / p.L, iC / p.C}
}
