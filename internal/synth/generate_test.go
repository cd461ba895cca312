package synth_test

import (
	"context"
	"math"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/dynamo"
	"github.com/san-kum/trplsim/internal/synth"
	"github.com/san-kum/trplsim/internal/trpl"
)

var _ = Describe("Generate", func() {
	var reference *trpl.Dataset

	BeforeEach(func() {
		if reference != nil {
			return
		}
		var err error
		reference, err = synth.GenerateDefault(0)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with the reference parameters", func() {
		It("covers the full grid once, time-major", func() {
			Expect(reference.Len()).To(Equal(480 * 640))

			times := reference.TimeAxis()
			wls := reference.WavelengthAxis()
			Expect(times).To(HaveLen(480))
			Expect(wls).To(HaveLen(640))
			Expect(times[0]).To(Equal(0.0))
			Expect(times[479]).To(Equal(1.0))
			Expect(wls[0]).To(Equal(200.0))
			Expect(wls[639]).To(Equal(300.0))

			for _, r := range []int{0, 1, 639, 640, 1000, 307199} {
				Expect(reference.Time(r)).To(Equal(times[r/640]))
				Expect(reference.Wavelength(r)).To(Equal(wls[r%640]))
			}
		})

		It("produces non-negative counts topped at the ceiling", func() {
			for _, v := range reference.Intensities() {
				Expect(v).To(BeNumerically(">=", 0))
			}
			Expect(reference.Max()).To(Equal(int64(10)))
		})

		It("peaks near the emission center and after the pulse", func() {
			Expect(reference.PeakWavelength()).To(BeNumerically("~", 236, 10))

			decay := reference.DecayCurve()
			best := 0
			for j, v := range decay {
				if v > decay[best] {
					best = j
				}
			}
			Expect(reference.TimeAxis()[best]).To(BeNumerically("~", 0.21, 0.05))
		})

		It("survives an Arrow file round trip with the same sum", func() {
			path := filepath.Join(GinkgoT().TempDir(), "reference.arrow")
			Expect(codec.WriteFile(path, codec.Arrow{}, reference)).To(Succeed())

			back, err := codec.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(back.Len()).To(Equal(307200))
			Expect(back.Sum()).To(Equal(reference.Sum()))
			Expect(back.Equal(reference)).To(BeTrue())
		})
	})

	Context("determinism", func() {
		It("is bit-identical for identical arguments", func() {
			again, err := synth.GenerateDefault(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Equal(reference)).To(BeTrue())
		})

		It("changes with the seed but keeps the ceiling", func() {
			other, err := synth.GenerateDefault(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Sum()).NotTo(Equal(reference.Sum()))
			Expect(other.Max()).To(Equal(reference.Max()))
		})
	})

	Context("paired channels", func() {
		var rr, rl *trpl.Dataset

		BeforeEach(func() {
			var err error
			rr, err = synth.GenerateWith(230, 5, 0.05, 0.2, 0)
			Expect(err).NotTo(HaveOccurred())
			rl, err = synth.GenerateWith(230, 5, 0.05, 0.225, 0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("normalizes the second channel to 0.8 of the first exactly with apportioning", func() {
			target := 0.8 * float64(rr.Sum())
			Expect(rl.RescaleToSum(target, trpl.Apportion)).To(Succeed())
			Expect(math.Abs(float64(rl.Sum()) - target)).To(BeNumerically("<=", 0.5))
		})

		It("stays within the per-row bound with half-even rounding", func() {
			target := 0.8 * float64(rr.Sum())
			Expect(rl.RescaleToSum(target, trpl.RoundHalfEven)).To(Succeed())
			Expect(math.Abs(float64(rl.Sum()) - target)).To(BeNumerically("<=", trpl.RoundHalfEven.Tolerance(rl.Len())))
		})
	})

	Context("invalid parameters", func() {
		DescribeTable("are rejected before any work",
			func(mutate func(*synth.Params)) {
				p := synth.DefaultParams()
				mutate(&p)
				d, err := synth.Generate(context.Background(), p)
				Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
				Expect(d).To(BeNil())
			},
			Entry("zero sigma", func(p *synth.Params) { p.Sigma = 0 }),
			Entry("negative xi", func(p *synth.Params) { p.Xi = -0.05 }),
			Entry("zero tau", func(p *synth.Params) { p.Tau = 0 }),
			Entry("no time samples", func(p *synth.Params) { p.Grid.TimeCount = 0 }),
			Entry("no wavelength samples", func(p *synth.Params) { p.Grid.WavelengthCount = -1 }),
			Entry("zero ceiling", func(p *synth.Params) { p.Noise.Ceiling = 0 }),
			Entry("zero pulse width", func(p *synth.Params) { p.Pulse.Width = 0 }),
			Entry("unknown integrator", func(p *synth.Params) { p.Integrator = "euler" }),
		)
	})

	It("reports solver failure without a dataset", func() {
		p := synth.DefaultParams()
		p.Tolerances.MaxSteps = 5
		d, err := synth.Generate(context.Background(), p)
		Expect(d).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrSimulationFailure))

		var simErr *dynamo.SimulationError
		Expect(err).To(BeAssignableToTypeOf(simErr))
	})

	It("exposes the trajectory and simulator metrics", func() {
		p := synth.DefaultParams()
		p.Grid.WavelengthCount = 32
		_, trace, err := synth.GenerateTrace(context.Background(), p)
		Expect(err).NotTo(HaveOccurred())

		Expect(trace.Trajectory).To(HaveLen(480))
		Expect(trace.Profile).To(HaveLen(32))
		Expect(trace.Metrics).To(HaveKeyWithValue("bounded", 1.0))
		Expect(trace.Metrics["peak"]).To(BeNumerically(">", 0))
		Expect(trace.Metrics["area"]).To(BeNumerically("~", p.Pulse.Width*math.Sqrt(math.Pi)*p.Tau, 1e-3))
		Expect(trace.PeakTime).To(BeNumerically("~", 0.21, 0.03))
	})

	It("still reaches the ceiling with a vanishing tail rate", func() {
		p := synth.DefaultParams()
		p.Grid.WavelengthCount = 32
		p.Xi = 1e-300
		d, err := synth.Generate(context.Background(), p)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Max()).To(Equal(int64(10)))
		Expect(d.Sum()).To(BeNumerically(">", 0))
	})
})

var _ = Describe("GenerateBatch", func() {
	small := func(tau float64, seed int64) synth.Params {
		p := synth.DefaultParams()
		p.Grid.TimeCount = 120
		p.Grid.WavelengthCount = 80
		p.Tau = tau
		p.Seed = seed
		return p
	}

	It("returns datasets in input order", func() {
		params := []synth.Params{small(0.2, 0), small(0.225, 1), small(0.05, 2)}
		batch, err := synth.GenerateBatch(context.Background(), params)
		Expect(err).NotTo(HaveOccurred())
		Expect(batch).To(HaveLen(3))

		for i, p := range params {
			single, err := synth.Generate(context.Background(), p)
			Expect(err).NotTo(HaveOccurred())
			Expect(batch[i].Equal(single)).To(BeTrue(), "item %d", i)
		}
	})

	It("fails the whole batch on one bad item", func() {
		bad := small(0.2, 0)
		bad.Sigma = -1
		_, err := synth.GenerateBatch(context.Background(), []synth.Params{small(0.2, 0), bad})
		Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		Expect(err.Error()).To(ContainSubstring("batch item 1"))
	})
})
