package integrators

import "github.com/san-kum/bucksim/internal/dynamo"

// Euler is the explicit (forward) Euler method: x_{k+1} = x_k + dt*f(x_k, t_k).
// It has no stability guard; dt must be small against the system's time constants.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
