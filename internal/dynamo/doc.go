// Package dynamo provides core simulation primitives for switched dynamical systems.
//
// The package defines the fundamental interfaces and types for fixed-step
// numerical simulation of ordinary differential equations:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Simulator]: drives an integrator across a fixed time grid
//
// # Example
//
//	dyn := physics.NewBuck(params)
//	sim := dynamo.New(dyn, integrators.NewEuler())
//	result, _ := sim.Run(ctx, dynamo.State{0, 0}, cfg)
//
// # Time Grid
//
// A run samples the half-open interval [0, Duration) at t_k = k*Dt for
// k = 0..N-1 with N = ceil(Duration/Dt). Sample k+1 depends only on sample k,
// so a run is a strictly serial scan over the grid.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Independent runs may execute in
// parallel on separate Simulator values.
package dynamo
