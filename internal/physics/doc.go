// Package physics provides the buck converter models for simulation.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equations governing the converter's state [iL, vout]:
//
//   - [Buck]: the switched model; the topology at time t comes from [Resolve]
//   - [AveragedBuck]: the state-space average of both topologies
//
// [BuckParams] carries the fixed inputs of a run and fails fast through
// [BuckParams.Validate] before anything is simulated.
//
// # Switching
//
// The switch is closed (On) while the phase t mod Ts is below D*Ts and open
// (Off) for the rest of the period:
//
//	On:  vL = Vin - vout   iC = -vout/R
//	Off: vL = -vout        iC = iL - vout/R
//
// with diL/dt = vL/L and dvout/dt = iC/C.
package physics
