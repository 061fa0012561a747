package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_ObserveSample(t *testing.T) {
	c := New()

	c.ObserveRun()
	c.ObserveSample(OutcomeOK, time.Millisecond, 99)
	c.ObserveSample(OutcomeOK, time.Millisecond, 99)
	c.ObserveSample(OutcomeFailed, time.Millisecond, 40)

	if got := testutil.ToFloat64(c.runs); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.samples.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("ok samples = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.samples.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("failed samples = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.steps); got != 198 {
		t.Errorf("steps = %v, want 198", got)
	}
}

func TestCollector_WriteText(t *testing.T) {
	c := New()
	c.ObserveRun()
	c.ObserveSample(OutcomeOK, 2*time.Millisecond, 10)

	var buf bytes.Buffer
	if err := c.WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"uqsim_propagations_total 1", `uqsim_samples_total{outcome="ok"} 1`, "uqsim_sample_duration_seconds_bucket"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.ObserveRun()
	c.ObserveSample(OutcomeOK, time.Second, 1)
	if err := c.WriteText(&bytes.Buffer{}); err != nil {
		t.Errorf("nil collector WriteText returned %v", err)
	}
	if c.Registry() != nil {
		t.Error("nil collector should have no registry")
	}
}
