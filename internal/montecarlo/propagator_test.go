package montecarlo_test

import (
	"bytes"
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/uqsim/internal/dynamo"
	"github.com/san-kum/uqsim/internal/integrators"
	"github.com/san-kum/uqsim/internal/logging"
	"github.com/san-kum/uqsim/internal/metrics"
	"github.com/san-kum/uqsim/internal/models"
	"github.com/san-kum/uqsim/internal/montecarlo"
)

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a + float64(i)*(b-a)/float64(n-1)
	}
	out[n-1] = b
	return out
}

func nitrateMarginals(scale float64) []montecarlo.Gaussian {
	m := make([]montecarlo.Gaussian, len(models.NominalLogRates))
	for i, loc := range models.NominalLogRates {
		m[i] = montecarlo.Gaussian{Loc: loc, Scale: scale}
	}
	return m
}

// failsAbove integrates decay but refuses rates above the threshold.
func failsAbove(threshold float64) dynamo.System {
	return dynamo.SystemFunc{
		F: func(x dynamo.State, t float64, p dynamo.Params) (dynamo.State, error) {
			if p[0] > threshold {
				return nil, errors.New("rate above threshold")
			}
			return dynamo.State{-p[0] * x[0]}, nil
		},
		States: 1,
		Params: 1,
	}
}

var _ = Describe("Propagator", func() {
	var (
		sys        *models.Nitrate
		y0         dynamo.State
		grid       []float64
		marginals  []montecarlo.Gaussian
		propagator *montecarlo.Propagator
		ctx        context.Context
	)

	BeforeEach(func() {
		sys = models.NewNitrate()
		y0 = sys.DefaultState()
		grid = linspace(0, 180, 100)
		marginals = nitrateMarginals(0.1)
		propagator = montecarlo.New(
			integrators.New(integrators.NewRKF45()),
			montecarlo.WithTransform(models.LogRate(models.RateScale)),
		)
		ctx = context.Background()
	})

	Describe("ensemble shape", func() {
		DescribeTable("returns exactly N trajectories of grid length",
			func(n int) {
				ens, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: n, Seed: 7})
				Expect(err).NotTo(HaveOccurred())
				Expect(ens.Len()).To(Equal(n))
				Expect(ens.Trajectories()).To(HaveLen(n))
				Expect(ens.Failures()).To(BeEmpty())
				for i, s := range ens.Samples {
					Expect(s.Index).To(Equal(i))
					Expect(s.Trajectory.States).To(HaveLen(len(grid)))
					Expect(s.Trajectory.States[0]).To(Equal(y0))
				}
			},
			Entry("one sample", 1),
			Entry("a few samples", 5),
			Entry("many samples", 64),
		)

		It("applies the transform before integrating", func() {
			ens, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: 3, Seed: 1})
			Expect(err).NotTo(HaveOccurred())
			for _, s := range ens.Samples {
				Expect(s.K).To(HaveLen(5))
				for j := range s.K {
					Expect(s.K[j]).To(BeNumerically("~", math.Exp(s.Xi[j])/models.RateScale, 1e-15))
				}
			}
		})

		It("does not mutate the initial state or the grid", func() {
			y0Copy := y0.Clone()
			gridCopy := append([]float64(nil), grid...)
			_, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: 4, Seed: 3, Workers: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(y0).To(Equal(y0Copy))
			Expect(grid).To(Equal(gridCopy))
		})
	})

	Describe("determinism", func() {
		It("gives bit-identical ensembles for the same seed", func() {
			cfg := montecarlo.Config{Samples: 20, Seed: 42}
			a, err := propagator.Propagate(ctx, sys, y0, grid, marginals, cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := propagator.Propagate(ctx, sys, y0, grid, marginals, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Samples).To(Equal(b.Samples))
		})

		It("gives different ensembles for different seeds", func() {
			a, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: 5, Seed: 1})
			Expect(err).NotTo(HaveOccurred())
			b, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: 5, Seed: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Samples[0].Xi).NotTo(Equal(b.Samples[0].Xi))
			Expect(a.Samples[0].Trajectory.Final()).NotTo(Equal(b.Samples[0].Trajectory.Final()))
		})

		DescribeTable("matches the sequential ensemble regardless of worker count",
			func(workers int) {
				seq, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: 37, Seed: 9})
				Expect(err).NotTo(HaveOccurred())
				par, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: 37, Seed: 9, Workers: workers})
				Expect(err).NotTo(HaveOccurred())
				Expect(par.Samples).To(Equal(seq.Samples))
			},
			Entry("2 workers", 2),
			Entry("4 workers", 4),
			Entry("more workers than samples", 64),
		)

		It("converges to the configured locations as N grows", func() {
			decay := models.NewDecay()
			m := []montecarlo.Gaussian{{Loc: 0.3, Scale: 0.05}}
			short := linspace(0, 1, 2)
			for _, n := range []int{10, 100, 1000, 10000} {
				ens, err := montecarlo.Propagate(decay, decay.DefaultState(), short, m, n, 2024)
				Expect(err).NotTo(HaveOccurred())
				sum := 0.0
				for _, xi := range ens.Draws() {
					sum += xi[0]
				}
				mean := sum / float64(n)
				Expect(math.Abs(mean-0.3)).To(BeNumerically("<", 5*0.05/math.Sqrt(float64(n))), "N=%d", n)
			}
		})
	})

	Describe("shape errors", func() {
		It("rejects a non-positive sample count", func() {
			for _, n := range []int{0, -3} {
				ens, err := propagator.Propagate(ctx, sys, y0, grid, marginals, montecarlo.Config{Samples: n})
				Expect(errors.Is(err, dynamo.ErrShape)).To(BeTrue())
				Expect(ens).To(BeNil())
			}
		})

		It("rejects a marginal count that does not match the system", func() {
			_, err := propagator.Propagate(ctx, sys, y0, grid, marginals[:4], montecarlo.Config{Samples: 2})
			Expect(errors.Is(err, dynamo.ErrShape)).To(BeTrue())
		})

		It("rejects a bad time grid before sampling", func() {
			collector := metrics.New()
			p := montecarlo.New(integrators.New(integrators.NewRKF45()), montecarlo.WithMetrics(collector))
			_, err := p.Propagate(ctx, sys, y0, []float64{0, 1, 0.5}, marginals, montecarlo.Config{Samples: 2})
			Expect(errors.Is(err, dynamo.ErrShape)).To(BeTrue())

			var buf bytes.Buffer
			Expect(collector.WriteText(&buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("uqsim_propagations_total 0"))
		})
	})

	Describe("failure policy", func() {
		var failing dynamo.System

		BeforeEach(func() {
			failing = failsAbove(0)
			grid = linspace(0, 1, 11)
			marginals = []montecarlo.Gaussian{{Loc: 0, Scale: 1}}
			propagator = montecarlo.New(integrators.New(integrators.NewRKF45()))
		})

		It("aborts on the first failing sample in strict mode", func() {
			ens, err := propagator.Propagate(ctx, failing, dynamo.State{1}, grid, marginals, montecarlo.Config{Samples: 50, Seed: 5})
			Expect(ens).To(BeNil())

			var se *dynamo.SampleError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Seed).To(Equal(uint64(5)))

			var step *dynamo.StepError
			Expect(errors.As(err, &step)).To(BeTrue())
			Expect(step.Step).To(Equal(1))

			xi, drawErr := montecarlo.NewSampler(marginals, 5).Draw(se.Index)
			Expect(drawErr).NotTo(HaveOccurred())
			Expect(xi[0]).To(BeNumerically(">", 0))
			for i := 0; i < se.Index; i++ {
				earlier, _ := montecarlo.NewSampler(marginals, 5).Draw(i)
				Expect(earlier[0]).To(BeNumerically("<=", 0))
			}
		})

		It("reports the same first failure with parallel workers", func() {
			_, seqErr := propagator.Propagate(ctx, failing, dynamo.State{1}, grid, marginals, montecarlo.Config{Samples: 50, Seed: 5})
			var seq *dynamo.SampleError
			Expect(errors.As(seqErr, &seq)).To(BeTrue())

			_, parErr := propagator.Propagate(ctx, failing, dynamo.State{1}, grid, marginals, montecarlo.Config{Samples: 50, Seed: 5, Workers: 1 + seq.Index})
			var par *dynamo.SampleError
			Expect(errors.As(parErr, &par)).To(BeTrue())
			Expect(par.Index).To(BeNumerically(">=", seq.Index))
		})

		It("returns a partial ensemble with a failure manifest in tolerant mode", func() {
			ens, err := propagator.Propagate(ctx, failing, dynamo.State{1}, grid, marginals, montecarlo.Config{Samples: 200, Seed: 5, Tolerant: true, Workers: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(ens.Len()).To(Equal(200))

			failures := ens.Failures()
			Expect(failures).NotTo(BeEmpty())
			Expect(ens.Succeeded() + len(failures)).To(Equal(200))
			Expect(ens.Trajectories()).To(HaveLen(ens.Succeeded()))
			for _, f := range failures {
				Expect(ens.Samples[f.Index].Xi[0]).To(BeNumerically(">", 0))
				Expect(ens.Samples[f.Index].Trajectory).To(BeNil())
			}
		})

		It("treats an invalid scale as a sampling error", func() {
			bad := []montecarlo.Gaussian{{Loc: 0.1, Scale: 0}}
			_, err := propagator.Propagate(ctx, models.NewDecay(), dynamo.State{1}, grid, bad, montecarlo.Config{Samples: 3})
			Expect(errors.Is(err, dynamo.ErrInvalidDistribution)).To(BeTrue())

			ens, err := propagator.Propagate(ctx, models.NewDecay(), dynamo.State{1}, grid, bad, montecarlo.Config{Samples: 3, Tolerant: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(ens.Failures()).To(HaveLen(3))
			Expect(ens.Draws()).To(BeEmpty())
		})
	})

	Describe("cancellation", func() {
		It("stops between samples when the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			ens, err := propagator.Propagate(cctx, sys, y0, grid, marginals, montecarlo.Config{Samples: 10})
			Expect(ens).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrCanceled)).To(BeTrue())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("instrumentation", func() {
		It("counts samples and logs failures", func() {
			var logs bytes.Buffer
			collector := metrics.New()
			p := montecarlo.New(
				integrators.New(integrators.NewRKF45()),
				montecarlo.WithMetrics(collector),
				montecarlo.WithLogger(logging.New(&logs, "debug", false)),
			)

			_, err := p.Propagate(ctx, failsAbove(0), dynamo.State{1}, linspace(0, 1, 5),
				[]montecarlo.Gaussian{{Loc: 0, Scale: 1}}, montecarlo.Config{Samples: 40, Seed: 11, Tolerant: true})
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			Expect(collector.WriteText(&buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("uqsim_propagations_total 1"))
			Expect(buf.String()).To(ContainSubstring(`uqsim_samples_total{outcome="failed"}`))
			Expect(logs.String()).To(ContainSubstring("sample failed"))
			Expect(logs.String()).To(ContainSubstring("propagation complete"))
		})
	})
})
