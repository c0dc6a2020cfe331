package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/integrators"
	"github.com/san-kum/bucksim/internal/metrics"
	"github.com/san-kum/bucksim/internal/physics"
)

const (
	ModelBuck     = "buck"
	ModelAveraged = "buck_averaged"
	IntegratorFwd = "euler"
)

type Registry struct {
	models      map[string]func(physics.BuckParams) dynamo.System
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func(physics.BuckParams) dynamo.System),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models[ModelBuck] = func(p physics.BuckParams) dynamo.System { return physics.NewBuck(p) }
	r.models[ModelAveraged] = func(p physics.BuckParams) dynamo.System { return physics.NewAveragedBuck(p) }

	r.integrators[IntegratorFwd] = func() dynamo.Integrator { return integrators.NewEuler() }

	return r
}

func (r *Registry) GetModel(name string, p physics.BuckParams) (dynamo.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s (available: %v)", name, r.ListModels())
	}
	return fn(p), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, r.ListIntegrators())
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics observes the final switching period, the peaks of both
// states and whether vout stays inside ±2*Vin.
func (r *Registry) DefaultMetrics(p physics.BuckParams) []dynamo.Metric {
	last := float64(p.Samples()-1) * p.Dt
	return []dynamo.Metric{
		metrics.NewTailMean("vout_mean_final_period", physics.OutputVoltage, last-p.Period()),
		metrics.NewPeak("vout_peak", physics.OutputVoltage),
		metrics.NewPeak("il_peak", physics.InductorCurrent),
		metrics.NewStability(2*p.Vin, physics.OutputVoltage),
	}
}
