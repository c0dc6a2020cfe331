package physics

import (
	"fmt"

	"github.com/san-kum/bucksim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Matrices returns the switched-affine form dx/dt = A x + b of one topology,
// with x = [iL, vout].
func (p BuckParams) Matrices(tp Topology) (*mat.Dense, *mat.VecDense) {
	coupling := 0.0
	source := 0.0
	if tp == Off {
		coupling = 1 / p.C
	} else {
		source = p.Vin / p.L
	}

	a := mat.NewDense(2, 2, []float64{
		0, -1 / p.L,
		coupling, -1 / (p.R * p.C),
	})
	b := mat.NewVecDense(2, []float64{source, 0})
	return a, b
}

// AveragedBuck is the duty-weighted average of the two topologies,
// A = D*A_on + (1-D)*A_off and b = D*b_on + (1-D)*b_off. It has no ripple and
// tracks the envelope of the switched model.
type AveragedBuck struct {
	Params BuckParams
	A      *mat.Dense
	B      *mat.VecDense
}

func NewAveragedBuck(p BuckParams) *AveragedBuck {
	aOn, bOn := p.Matrices(On)
	aOff, bOff := p.Matrices(Off)

	var a mat.Dense
	a.Scale(p.D, aOn)
	var scaledOff mat.Dense
	scaledOff.Scale(1-p.D, aOff)
	a.Add(&a, &scaledOff)

	b := mat.NewVecDense(2, nil)
	b.AddScaledVec(b, p.D, bOn)
	b.AddScaledVec(b, 1-p.D, bOff)

	return &AveragedBuck{Params: p, A: &a, B: b}
}

func (a *AveragedBuck) StateDim() int   { return 2 }
func (a *AveragedBuck) ControlDim() int { return 0 }

func (a *AveragedBuck) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	var dx mat.VecDense
	dx.MulVec(a.A, mat.NewVecDense(2, []float64{x[InductorCurrent], x[OutputVoltage]}))
	dx.AddVec(&dx, a.B)
	return dynamo.State{dx.AtVec(0), dx.AtVec(1)}
}

// SteadyState solves A x = -b for the equilibrium [iL, vout].
func (a *AveragedBuck) SteadyState() (dynamo.State, error) {
	rhs := mat.NewVecDense(2, nil)
	rhs.ScaleVec(-1, a.B)

	var x mat.VecDense
	if err := x.SolveVec(a.A, rhs); err != nil {
		return nil, fmt.Errorf("averaged steady state: %w", err)
	}
	return dynamo.State{x.AtVec(0), x.AtVec(1)}, nil
}
