package experiment_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bucksim/internal/analysis"
	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/experiment"
	"github.com/san-kum/bucksim/internal/physics"
)

func finalMean(wf *experiment.Waveform) float64 {
	return analysis.FinalPeriodMean(wf.Time, wf.OutputVoltage, wf.Params.Period())
}

var _ = Describe("Simulate", func() {
	var (
		ctx     context.Context
		nominal physics.BuckParams
		wf      *experiment.Waveform
	)

	BeforeEach(func() {
		ctx = context.Background()
		nominal = physics.DefaultBuckParams()

		var err error
		wf, err = experiment.Simulate(ctx, nominal)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("trajectory shape", func() {
		It("starts from rest", func() {
			Expect(wf.InductorCurrent[0]).To(BeZero())
			Expect(wf.OutputVoltage[0]).To(BeZero())
		})

		It("returns equal-length sequences on a ceil(t_end/dt) grid", func() {
			n := int(math.Ceil(nominal.TEnd / nominal.Dt))
			Expect(wf.Time).To(HaveLen(n))
			Expect(wf.InductorCurrent).To(HaveLen(n))
			Expect(wf.OutputVoltage).To(HaveLen(n))
		})

		It("samples a strictly increasing grid spaced by dt", func() {
			Expect(wf.Time[0]).To(BeZero())
			for k := 1; k < wf.Len(); k++ {
				Expect(wf.Time[k]).To(BeNumerically(">", wf.Time[k-1]))
				Expect(wf.Time[k] - wf.Time[k-1]).To(BeNumerically("~", nominal.Dt, 1e-15))
			}
			Expect(wf.FinalTime()).To(BeNumerically("<", nominal.TEnd))
		})

		It("reports the ideal mean output D*Vin", func() {
			Expect(wf.MeanOutput).To(Equal(20.0))
		})
	})

	Describe("determinism", func() {
		It("reproduces bit-identical trajectories", func() {
			again, err := experiment.Simulate(ctx, nominal)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Time).To(Equal(wf.Time))
			Expect(again.InductorCurrent).To(Equal(wf.InductorCurrent))
			Expect(again.OutputVoltage).To(Equal(wf.OutputVoltage))
		})
	})

	Describe("recurrence", func() {
		It("advances every sample with one Euler step of the active topology", func() {
			buck := physics.NewBuck(nominal)
			for _, k := range []int{0, 1, 79, 80, 81, 199, 200, 12345, wf.Len() - 2} {
				x := dynamo.State{wf.InductorCurrent[k], wf.OutputVoltage[k]}
				d := buck.Derive(x, nil, wf.Time[k])
				Expect(wf.InductorCurrent[k+1]).To(Equal(x[0] + nominal.Dt*d[0]))
				Expect(wf.OutputVoltage[k+1]).To(Equal(x[1] + nominal.Dt*d[1]))
			}
		})
	})

	Describe("steady state", func() {
		It("settles near D*Vin over the final switching period", func() {
			Expect(finalMean(wf)).To(BeNumerically("~", nominal.MeanOutput(), 0.05*nominal.MeanOutput()))
		})

		It("keeps the output bounded by 2*Vin", func() {
			for _, v := range wf.OutputVoltage {
				Expect(math.Abs(v)).To(BeNumerically("<", 2*nominal.Vin))
			}
		})

		It("stays in continuous conduction", func() {
			for _, i := range wf.InductorCurrent {
				Expect(i).To(BeNumerically(">=", 0))
			}
		})
	})

	Describe("step size", func() {
		It("grows the deviation from D*Vin as dt doubles", func() {
			points, err := experiment.Sweep(ctx, nominal, []float64{
				nominal.Period() / 50,
				nominal.Period() / 200,
				nominal.Period() / 100,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(points).To(HaveLen(3))

			for i := 1; i < len(points); i++ {
				Expect(points[i].Dt).To(BeNumerically(">", points[i-1].Dt))
				Expect(points[i].Deviation).To(BeNumerically(">", points[i-1].Deviation))
			}
		})
	})

	DescribeTable("duty ratio trends",
		func(d float64) {
			p := nominal
			p.D = d
			p.TEnd = 20e-3

			out, err := experiment.Simulate(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(finalMean(out)).To(BeNumerically("~", d*p.Vin, 0.05*d*p.Vin))
		},
		Entry("near zero duty tends to 0 V", 0.05),
		Entry("mid duty", 0.4),
		Entry("near full duty tends to Vin", 0.95),
	)

	It("orders final means by duty ratio", func() {
		var means []float64
		for _, d := range []float64{0.05, 0.4, 0.95} {
			p := nominal
			p.D = d
			p.TEnd = 20e-3
			out, err := experiment.Simulate(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			means = append(means, finalMean(out))
		}
		Expect(means[0]).To(BeNumerically("<", means[1]))
		Expect(means[1]).To(BeNumerically("<", means[2]))
	})

	DescribeTable("rejects invalid parameters before simulating",
		func(mutate func(*physics.BuckParams)) {
			p := nominal
			mutate(&p)
			out, err := experiment.Simulate(ctx, p)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			Expect(out).To(BeNil())
		},
		Entry("zero inductance", func(p *physics.BuckParams) { p.L = 0 }),
		Entry("negative capacitance", func(p *physics.BuckParams) { p.C = -1e-6 }),
		Entry("zero load", func(p *physics.BuckParams) { p.R = 0 }),
		Entry("zero frequency", func(p *physics.BuckParams) { p.Fs = 0 }),
		Entry("zero duration", func(p *physics.BuckParams) { p.TEnd = 0 }),
		Entry("negative step", func(p *physics.BuckParams) { p.Dt = -1e-7 }),
		Entry("step too small to grid", func(p *physics.BuckParams) { p.Dt = 1e-300 }),
		Entry("duty of zero", func(p *physics.BuckParams) { p.D = 0 }),
		Entry("duty of one", func(p *physics.BuckParams) { p.D = 1 }),
	)
})

var _ = Describe("Experiment", func() {
	It("runs the averaged model towards its steady state", func() {
		p := physics.DefaultBuckParams()
		p.TEnd = 20e-3

		exp := experiment.New(experiment.Config{
			Model:      experiment.ModelAveraged,
			Integrator: experiment.IntegratorFwd,
			Params:     p,
		})
		Expect(exp.SetupFromRegistry(experiment.NewRegistry())).To(Succeed())

		wf, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(wf.Model).To(Equal(experiment.ModelAveraged))

		eq, err := physics.NewAveragedBuck(p).SteadyState()
		Expect(err).NotTo(HaveOccurred())
		last := wf.Len() - 1
		Expect(wf.OutputVoltage[last]).To(BeNumerically("~", eq[physics.OutputVoltage], 0.01*eq[physics.OutputVoltage]))
		Expect(wf.InductorCurrent[last]).To(BeNumerically("~", eq[physics.InductorCurrent], 0.01*eq[physics.InductorCurrent]))
	})

	It("fills the default metrics for a switched run", func() {
		p := physics.DefaultBuckParams()
		exp := experiment.New(experiment.Config{
			Model:      experiment.ModelBuck,
			Integrator: experiment.IntegratorFwd,
			Params:     p,
		})
		Expect(exp.SetupFromRegistry(experiment.NewRegistry())).To(Succeed())

		wf, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(wf.Metrics).To(HaveKeyWithValue("stability", 1.0))
		Expect(wf.Metrics["vout_mean_final_period"]).To(BeNumerically("~", finalMean(wf), 1e-9))
		Expect(wf.Metrics["vout_peak"]).To(BeNumerically("<", 2*p.Vin))
		Expect(wf.Metrics["il_peak"]).To(BeNumerically(">", 0))
	})

	It("reports switch transitions to attached observers", func() {
		p := physics.DefaultBuckParams()
		exp := experiment.New(experiment.Config{
			Model:      experiment.ModelBuck,
			Integrator: experiment.IntegratorFwd,
			Params:     p,
		})
		Expect(exp.SetupFromRegistry(experiment.NewRegistry())).To(Succeed())

		var seen []experiment.Transition
		obs := experiment.NewTransitionObserver(physics.NewBuck(p), func(tr experiment.Transition) {
			seen = append(seen, tr)
		})
		exp.GetSimulator().AddObserver(obs)

		wf, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		// 100 periods: one turn-off each, one turn-on in all but the first.
		Expect(obs.Count()).To(Equal(199))
		Expect(seen).To(HaveLen(199))

		first := seen[0]
		Expect(first.From).To(Equal(physics.On))
		Expect(first.To).To(Equal(physics.Off))
		Expect(first.Time).To(BeNumerically(">=", p.OnTime()))
		Expect(first.Time).To(BeNumerically("<", p.OnTime()+2*p.Dt))

		k := int(math.Round(first.Time / p.Dt))
		Expect(first.IL).To(Equal(wf.InductorCurrent[k]))
		Expect(first.Vout).To(Equal(wf.OutputVoltage[k]))

		for i := 1; i < len(seen); i++ {
			Expect(seen[i].From).To(Equal(seen[i-1].To))
		}
	})

	It("leaves GetSimulator nil before setup", func() {
		Expect(experiment.New(experiment.Config{}).GetSimulator()).To(BeNil())
	})

	It("refuses to run before setup", func() {
		_, err := experiment.New(experiment.Config{}).Run(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
