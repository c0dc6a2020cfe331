package metrics

import "github.com/san-kum/bucksim/internal/dynamo"

// TailMean averages one state component over samples with t >= from.
type TailMean struct {
	name    string
	index   int
	from    float64
	sum     float64
	samples int
}

func NewTailMean(name string, index int, from float64) *TailMean {
	return &TailMean{name: name, index: index, from: from}
}

func (m *TailMean) Name() string { return m.name }

func (m *TailMean) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if t < m.from || m.index >= len(x) {
		return
	}
	m.sum += x[m.index]
	m.samples++
}

func (m *TailMean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *TailMean) Reset() {
	m.sum = 0
	m.samples = 0
}
