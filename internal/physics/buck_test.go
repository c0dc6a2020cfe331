package physics

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/bucksim/internal/dynamo"
)

func TestDefaultBuckParams(t *testing.T) {
	p := DefaultBuckParams()

	if err := p.Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	if math.Abs(p.Period()-50e-6) > 1e-18 {
		t.Errorf("period = %g, want 50µs", p.Period())
	}
	if p.MeanOutput() != 20.0 {
		t.Errorf("mean output = %g, want 20", p.MeanOutput())
	}
	if p.Samples() != 20000 {
		t.Errorf("samples = %d, want 20000", p.Samples())
	}
	if math.Abs(p.StepsPerPeriod()-200) > 1e-9 {
		t.Errorf("steps per period = %g, want 200", p.StepsPerPeriod())
	}
}

func TestBuckParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BuckParams)
		field  string
	}{
		{"zero inductance", func(p *BuckParams) { p.L = 0 }, "L"},
		{"negative resistance", func(p *BuckParams) { p.R = -4 }, "R"},
		{"zero capacitance", func(p *BuckParams) { p.C = 0 }, "C"},
		{"negative frequency", func(p *BuckParams) { p.Fs = -1 }, "Fs"},
		{"zero duration", func(p *BuckParams) { p.TEnd = 0 }, "t_end"},
		{"zero step", func(p *BuckParams) { p.Dt = 0 }, "dt"},
		{"NaN step", func(p *BuckParams) { p.Dt = math.NaN() }, "dt"},
		{"infinite duration", func(p *BuckParams) { p.TEnd = math.Inf(1) }, "t_end"},
		{"step overflows the grid length", func(p *BuckParams) { p.Dt = 1e-300 }, "dt"},
		{"grid past the sample cap", func(p *BuckParams) { p.TEnd = 1; p.Dt = 1e-12 }, "dt"},
		{"zero duty", func(p *BuckParams) { p.D = 0 }, "duty"},
		{"full duty", func(p *BuckParams) { p.D = 1 }, "duty"},
		{"negative duty", func(p *BuckParams) { p.D = -0.2 }, "duty"},
		{"NaN duty", func(p *BuckParams) { p.D = math.NaN() }, "duty"},
		{"infinite source", func(p *BuckParams) { p.Vin = math.Inf(1) }, "Vin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultBuckParams()
			tt.mutate(&p)
			err := p.Validate()
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Fatalf("expected ErrParameterBounds, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should name %q", err, tt.field)
			}
		})
	}
}

func TestBuckParamsValidateAcceptsNegativeSource(t *testing.T) {
	p := DefaultBuckParams()
	p.Vin = -12
	if err := p.Validate(); err != nil {
		t.Errorf("Vin has no sign constraint, got %v", err)
	}
}

func TestResolveBoundary(t *testing.T) {
	p := DefaultBuckParams()
	ts := p.Period()
	edge := p.D * ts

	tests := []struct {
		name string
		t    float64
		want Topology
	}{
		{"cycle start", 0, On},
		{"just before edge", math.Nextafter(edge, 0), On},
		{"exactly at edge", edge, Off},
		{"mid off", 0.7 * ts, Off},
		{"just before period end", math.Nextafter(ts, 0), Off},
		{"second cycle start", ts, On},
		{"second cycle on", ts + 0.5*edge, On},
		{"late cycle off", 37*ts + 0.9*ts, Off},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.t, ts, p.D); got != tt.want {
				t.Errorf("Resolve(%g) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestResolveDutyFraction(t *testing.T) {
	p := DefaultBuckParams()
	buck := NewBuck(p)

	on := 0
	grid := dynamo.Grid(p.TEnd, p.Dt)
	for _, tk := range grid {
		if buck.Topology(tk) == On {
			on++
		}
	}

	frac := float64(on) / float64(len(grid))
	if math.Abs(frac-p.D) > 0.01 {
		t.Errorf("on fraction = %.4f, want ~%.2f", frac, p.D)
	}
}

func TestTopologyString(t *testing.T) {
	if On.String() != "on" || Off.String() != "off" {
		t.Errorf("unexpected names: %s, %s", On, Off)
	}
	if Topology(7).String() != "topology(7)" {
		t.Errorf("unexpected fallback: %s", Topology(7))
	}
}

func TestBuckDerive(t *testing.T) {
	p := DefaultBuckParams()
	buck := NewBuck(p)
	x := dynamo.State{3.0, 12.0}

	onT := 0.1 * p.Period()
	offT := 0.9 * p.Period()

	dOn := buck.Derive(x, nil, onT)
	wantOn := dynamo.State{(p.Vin - 12.0) / p.L, (-12.0 / p.R) / p.C}
	assertState(t, "on", dOn, wantOn)

	dOff := buck.Derive(x, nil, offT)
	wantOff := dynamo.State{-12.0 / p.L, (3.0 - 12.0/p.R) / p.C}
	assertState(t, "off", dOff, wantOff)
}

func TestBuckDeriveFromRest(t *testing.T) {
	p := DefaultBuckParams()
	d := NewBuck(p).Derive(dynamo.State{0, 0}, nil, 0)

	if d[InductorCurrent] != p.Vin/p.L {
		t.Errorf("diL/dt at rest = %g, want Vin/L", d[InductorCurrent])
	}
	if d[OutputVoltage] != 0 {
		t.Errorf("dvout/dt at rest = %g, want 0", d[OutputVoltage])
	}
}

func TestDerivedConstants(t *testing.T) {
	p := DefaultBuckParams()

	if got := p.InductorTimeConstant(); math.Abs(got-3e-4) > 1e-15 {
		t.Errorf("L/R = %g", got)
	}
	if got := p.RCTimeConstant(); math.Abs(got-62.4e-6) > 1e-15 {
		t.Errorf("RC = %g", got)
	}
	want := 1 / (2 * math.Pi * math.Sqrt(1.2e-3*15.6e-6))
	if got := p.CornerFrequency(); math.Abs(got-want) > 1e-9 {
		t.Errorf("corner = %g, want %g", got, want)
	}
	if got := p.OnTime(); math.Abs(got-20e-6) > 1e-18 {
		t.Errorf("on time = %g", got)
	}
}

func TestWithStepsPerPeriod(t *testing.T) {
	p := DefaultBuckParams().WithStepsPerPeriod(50)
	if p.Dt != p.Period()/50 {
		t.Errorf("dt = %g, want Ts/50", p.Dt)
	}
	if p.Samples() != 5000 {
		t.Errorf("samples = %d, want 5000", p.Samples())
	}
}

func assertState(t *testing.T, label string, got, want dynamo.State) {
	t.Helper()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9*math.Max(1, math.Abs(want[i])) {
			t.Errorf("%s[%d] = %g, want %g", label, i, got[i], want[i])
		}
	}
}
