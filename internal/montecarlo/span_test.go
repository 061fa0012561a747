package montecarlo

import (
	"math"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSpanAttributes_SeedKeepsFullRange(t *testing.T) {
	tests := []struct {
		seed uint64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{math.MaxInt64 + 1, "9223372036854775808"},
		{math.MaxUint64, "18446744073709551615"},
	}

	for _, tt := range tests {
		var seed attribute.Value
		for _, kv := range spanAttributes(Config{Samples: 1, Seed: tt.seed}) {
			if kv.Key == "seed" {
				seed = kv.Value
			}
		}
		if seed.Type() != attribute.STRING {
			t.Fatalf("seed attribute has type %v, expected STRING", seed.Type())
		}
		if seed.AsString() != tt.want {
			t.Errorf("seed %d recorded as %q, expected %q", tt.seed, seed.AsString(), tt.want)
		}
	}
}
