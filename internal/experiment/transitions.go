package experiment

import (
	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/physics"
)

// Transition is one change of switch state seen on the time grid.
type Transition struct {
	Time float64
	From physics.Topology
	To   physics.Topology
	IL   float64
	Vout float64
}

// TransitionObserver reports each sample at which the buck's switch state
// differs from the previous sample's.
type TransitionObserver struct {
	buck    *physics.Buck
	fn      func(Transition)
	last    physics.Topology
	started bool
	count   int
}

// NewTransitionObserver watches b; fn may be nil when only the count is needed.
func NewTransitionObserver(b *physics.Buck, fn func(Transition)) *TransitionObserver {
	return &TransitionObserver{buck: b, fn: fn}
}

func (o *TransitionObserver) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	tp := o.buck.Topology(t)
	if !o.started {
		o.started = true
		o.last = tp
		return
	}
	if tp == o.last {
		return
	}

	o.count++
	if o.fn != nil {
		o.fn(Transition{
			Time: t,
			From: o.last,
			To:   tp,
			IL:   x[physics.InductorCurrent],
			Vout: x[physics.OutputVoltage],
		})
	}
	o.last = tp
}

// Count is the number of transitions seen so far.
func (o *TransitionObserver) Count() int { return o.count }
