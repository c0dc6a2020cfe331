package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/integrators"
	"github.com/san-kum/bucksim/internal/physics"
)

type Config struct {
	Model         string
	Integrator    string
	Params        physics.BuckParams
	ValidateState bool
}

type Experiment struct {
	cfg       Config
	simulator *dynamo.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(dyn dynamo.System, integrator dynamo.Integrator, metrics []dynamo.Metric) error {
	if err := e.cfg.Params.Validate(); err != nil {
		return err
	}
	e.simulator = dynamo.New(dyn, integrator)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

// SetupFromRegistry resolves the configured model and integrator by name.
func (e *Experiment) SetupFromRegistry(r *Registry) error {
	dyn, err := r.GetModel(e.cfg.Model, e.cfg.Params)
	if err != nil {
		return err
	}
	integ, err := r.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	return e.Setup(dyn, integ, r.DefaultMetrics(e.cfg.Params))
}

func (e *Experiment) Run(ctx context.Context) (*Waveform, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	cfg := e.cfg.Params.SimConfig()
	cfg.ValidateState = e.cfg.ValidateState

	result, err := e.simulator.Run(ctx, dynamo.State{0, 0}, cfg)
	if err != nil {
		return nil, err
	}
	return newWaveform(e.cfg.Model, e.cfg.Params, result), nil
}

// GetSimulator returns the simulator built by Setup, or nil before it.
// Observers attached to it see every sample of the next Run.
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}

// Simulate runs the switched buck model from rest with explicit Euler and
// returns its full trajectory. Parameters are validated before any step.
func Simulate(ctx context.Context, p physics.BuckParams) (*Waveform, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sim := dynamo.New(physics.NewBuck(p), integrators.NewEuler())
	result, err := sim.Run(ctx, dynamo.State{0, 0}, p.SimConfig())
	if err != nil {
		return nil, err
	}
	return newWaveform(ModelBuck, p, result), nil
}
