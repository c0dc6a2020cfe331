package metrics

import (
	"math"

	"github.com/san-kum/bucksim/internal/dynamo"
)

// Stability reports the fraction of samples whose components all stay
// within ±threshold. 1.0 means the run never left the band.
type Stability struct {
	name       string
	threshold  float64
	indices    []int
	violations int
	samples    int
}

// NewStability watches every component, or only the given indices.
func NewStability(threshold float64, indices ...int) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
		indices:   indices,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if len(s.indices) == 0 {
		for _, val := range x {
			if !(math.Abs(val) < s.threshold) {
				s.violations++
				return
			}
		}
		return
	}
	for _, i := range s.indices {
		if i < len(x) && !(math.Abs(x[i]) < s.threshold) {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
