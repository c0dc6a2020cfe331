package dynamo

import (
	"context"
	"fmt"
)

// ctxCheckMask controls how often Run polls the context (every 4096 steps).
const ctxCheckMask = 0xfff

type Simulator struct {
	dyn        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(dyn System, integrator Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run fills the whole grid left to right starting from x0. Every sample is
// handed to metrics and observers once, in order. Divergence is not an error:
// with ValidateState set, the first non-finite sample is recorded in
// Result.Errors and the run still completes.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d components, system wants %d",
			ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	times := Grid(cfg.Duration, cfg.Dt)
	n := len(times)
	result := &Result{
		States:  make([]State, n),
		Times:   times,
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	u := make(Control, s.dyn.ControlDim())
	dt := cfg.Dt
	invalid := false

	result.States[0] = x0.Clone()
	s.observe(result.States[0], u, times[0])

	for k := 0; k < n-1; k++ {
		if k&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return result, err
			}
		}

		next := s.integrator.Step(s.dyn, result.States[k], u, times[k], dt)

		if cfg.ValidateState && !invalid && !next.IsValid() {
			invalid = true
			result.Errors = append(result.Errors, &SimulationError{
				Step:    k + 1,
				Time:    times[k+1],
				State:   next.Clone(),
				Wrapped: ErrInvalidState,
			})
		}

		result.States[k+1] = next
		result.StepsTaken++
		s.observe(next, u, times[k+1])
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) observe(x State, u Control, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}
}
