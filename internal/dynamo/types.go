package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is the external input vector. Open-loop systems use an empty one.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

// MaxSamples caps the length of a time grid. At two float64 components per
// state a full grid stays around a few GiB.
const MaxSamples = 1 << 25

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if !GridFits(c.Duration, c.Dt) {
		return fmt.Errorf("%w: dt %g is too small for duration %g (more than %d samples)",
			ErrInvalidConfig, c.Dt, c.Duration, MaxSamples)
	}
	return nil
}

// GridFits reports whether ceil(duration/dt) is at most MaxSamples.
func GridFits(duration, dt float64) bool {
	return math.Ceil(duration/dt) <= MaxSamples
}

// Grid returns the sample instants t_k = k*dt covering [0, duration).
func Grid(duration, dt float64) []float64 {
	n := int(math.Ceil(duration / dt))
	times := make([]float64, n)
	for k := range times {
		times[k] = float64(k) * dt
	}
	return times
}

type Result struct {
	States     []State
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Component extracts state component i as its own series.
func (r *Result) Component(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}
