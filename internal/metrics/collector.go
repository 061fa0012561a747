// Package metrics exposes propagation counters and timings through a
// private prometheus registry.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "uqsim"

// Sample outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Collector records what the propagator does. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry           *prometheus.Registry
	runs               prometheus.Counter
	samples            *prometheus.CounterVec
	steps              prometheus.Counter
	integrationSeconds prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagations_total",
			Help:      "Monte Carlo propagations started.",
		}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Monte Carlo samples integrated, by outcome.",
		}, []string{"outcome"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integration_steps_total",
			Help:      "Integrator steps taken by successful samples.",
		}),
		integrationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_duration_seconds",
			Help:      "Wall time to draw and integrate one sample.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
	c.registry.MustRegister(c.runs, c.samples, c.steps, c.integrationSeconds)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) ObserveRun() {
	if c == nil {
		return
	}
	c.runs.Inc()
}

// ObserveSample records one sample; steps is ignored for failed samples.
func (c *Collector) ObserveSample(outcome string, d time.Duration, steps int) {
	if c == nil {
		return
	}
	c.samples.WithLabelValues(outcome).Inc()
	c.integrationSeconds.Observe(d.Seconds())
	if outcome == OutcomeOK {
		c.steps.Add(float64(steps))
	}
}

// WriteText renders all metrics in the prometheus text format.
func (c *Collector) WriteText(w io.Writer) error {
	if c == nil {
		return nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
