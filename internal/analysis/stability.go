package analysis

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/bucksim/internal/physics"
	"gonum.org/v1/gonum/mat"
)

// marginTol absorbs rounding on the marginal eigenvalue of the On topology.
const marginTol = 1e-9

type TopologyStability struct {
	Topology       physics.Topology
	Eigenvalues    []complex128
	SpectralRadius float64
	Stable         bool
}

// EulerStability reports, per topology, the spectral radius of the one-step
// Euler map I + dt*A. It is advisory: nothing in the simulator consults it.
func EulerStability(p physics.BuckParams) []TopologyStability {
	out := make([]TopologyStability, 0, 2)
	for _, tp := range []physics.Topology{physics.On, physics.Off} {
		a, _ := p.Matrices(tp)

		var step mat.Dense
		step.Scale(p.Dt, a)
		for i := 0; i < 2; i++ {
			step.Set(i, i, step.At(i, i)+1)
		}

		var eig mat.Eigen
		ts := TopologyStability{Topology: tp, SpectralRadius: math.Inf(1)}
		if eig.Factorize(&step, mat.EigenNone) {
			ts.Eigenvalues = eig.Values(nil)
			ts.SpectralRadius = 0
			for _, v := range ts.Eigenvalues {
				ts.SpectralRadius = math.Max(ts.SpectralRadius, cmplx.Abs(v))
			}
		}
		ts.Stable = ts.SpectralRadius <= 1+marginTol
		out = append(out, ts)
	}
	return out
}

// MaxStableDt is the largest Euler step keeping both topologies' maps
// inside the unit circle: the minimum of 2|Re λ|/|λ|² over eigenvalues with
// negative real part. Eigenvalues on the imaginary axis impose no bound here.
func MaxStableDt(p physics.BuckParams) float64 {
	limit := math.Inf(1)
	for _, tp := range []physics.Topology{physics.On, physics.Off} {
		a, _ := p.Matrices(tp)

		var eig mat.Eigen
		if !eig.Factorize(a, mat.EigenNone) {
			return 0
		}
		for _, v := range eig.Values(nil) {
			mag := cmplx.Abs(v)
			if mag == 0 || real(v) >= 0 {
				continue
			}
			limit = math.Min(limit, -2*real(v)/(mag*mag))
		}
	}
	return limit
}
