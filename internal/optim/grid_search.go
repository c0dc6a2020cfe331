package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bucksim/internal/analysis"
	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/experiment"
	"github.com/san-kum/bucksim/internal/physics"
)

var ErrNoCandidate = errors.New("optim: no valid parameter combination")

// Axis is one searched parameter.
type Axis struct {
	Name   string
	Values []float64
	Apply  func(p *physics.BuckParams, v float64)
}

func DutyAxis(values ...float64) Axis {
	return Axis{Name: "duty", Values: values, Apply: func(p *physics.BuckParams, v float64) { p.D = v }}
}

func LoadAxis(values ...float64) Axis {
	return Axis{Name: "resistance", Values: values, Apply: func(p *physics.BuckParams, v float64) { p.R = v }}
}

func CapacitanceAxis(values ...float64) Axis {
	return Axis{Name: "capacitance", Values: values, Apply: func(p *physics.BuckParams, v float64) { p.C = v }}
}

// Range returns from, from+step, ... up to and including to, with each value
// rounded to 1e-9 so float drift does not leak into parameter names.
func Range(from, to, step float64) []float64 {
	if step <= 0 || to < from {
		return nil
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round((from+float64(i)*step)*1e9) / 1e9
	}
	return out
}

// Score ranks a finished run; lower is better.
type Score func(wf *experiment.Waveform) float64

// TargetDeviation scores a run by how far its final-period mean output lies
// from target volts.
func TargetDeviation(target float64) Score {
	return func(wf *experiment.Waveform) float64 {
		return math.Abs(analysis.FinalPeriodMean(wf.Time, wf.OutputVoltage, wf.Params.Period()) - target)
	}
}

type Candidate struct {
	Params physics.BuckParams
	Values map[string]float64
	Score  float64
}

type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes ...Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Size is the number of combinations Search will try.
func (g *GridSearch) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Search simulates every combination of axis values applied to base and
// returns the lowest scoring one. Combinations that fail parameter
// validation are skipped; any other error stops the search.
func (g *GridSearch) Search(ctx context.Context, base physics.BuckParams, score Score) (Candidate, error) {
	best := Candidate{Score: math.Inf(1)}
	found := false

	err := g.searchRecursive(ctx, 0, base, make(map[string]float64), func(p physics.BuckParams, values map[string]float64) error {
		wf, err := experiment.Simulate(ctx, p)
		if errors.Is(err, dynamo.ErrParameterBounds) {
			return nil
		}
		if err != nil {
			return err
		}

		if s := score(wf); !found || s < best.Score {
			found = true
			best = Candidate{Params: p, Values: copyValues(values), Score: s}
		}
		return nil
	})
	if err != nil {
		return Candidate{}, err
	}
	if !found {
		return Candidate{}, fmt.Errorf("%w over %d combinations", ErrNoCandidate, g.Size())
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current physics.BuckParams,
	values map[string]float64,
	visit func(physics.BuckParams, map[string]float64) error,
) error {
	if depth == len(g.axes) {
		return visit(current, values)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	axis := g.axes[depth]
	for _, v := range axis.Values {
		next := current
		axis.Apply(&next, v)
		values[axis.Name] = v

		if err := g.searchRecursive(ctx, depth+1, next, values, visit); err != nil {
			return err
		}
	}
	delete(values, axis.Name)
	return nil
}

func copyValues(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
