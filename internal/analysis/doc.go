// Package analysis provides post-run figures for converter waveforms.
//
// The package works on the plain sample slices a run produces:
//
//   - [FinalPeriodMean]: average over the last switching period
//   - [Ripple]: peak-to-peak excursion over the last switching period
//   - [Deviation]: distance of the final-period mean from a target
//   - [Overshoot]: relative excursion above a target
//   - [SettlingTime]: time after which a signal stays inside a band
//   - [EulerStability]: spectral radius of the Euler update per topology
//
// # Step Size Check
//
// Explicit Euler maps x to (I + dt*A) x inside one topology. A spectral
// radius above one means that topology amplifies every step:
//
//	for _, ts := range analysis.EulerStability(params) {
//	    if !ts.Stable {
//	        // shrink dt
//	    }
//	}
package analysis
