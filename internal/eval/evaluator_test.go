package eval_test

import (
	"math"
	"testing"
	"time"

	"slochecker/internal/eval"
	"slochecker/internal/slo"
)

func TestEvaluate_ComparisonSemantics(t *testing.T) {
	tests := []struct {
		name       string
		comparison slo.Comparison
		threshold  float64
		value      float64
		expected   eval.Verdict
	}{
		{
			name:       "availability above objective",
			comparison: slo.ComparisonGTE,
			threshold:  0.999,
			value:      0.9995,
			expected:   eval.VerdictMet,
		},
		{
			name:       "latency p99 over limit",
			comparison: slo.ComparisonLTE,
			threshold:  200.0,
			value:      250.0,
			expected:   eval.VerdictViolated,
		},
		{
			name:       "gte boundary is met",
			comparison: slo.ComparisonGTE,
			threshold:  0.999,
			value:      0.999,
			expected:   eval.VerdictMet,
		},
		{
			name:       "lte boundary is met",
			comparison: slo.ComparisonLTE,
			threshold:  200.0,
			value:      200.0,
			expected:   eval.VerdictMet,
		},
		{
			name:       "gt boundary is violated",
			comparison: slo.ComparisonGT,
			threshold:  0,
			value:      0,
			expected:   eval.VerdictViolated,
		},
		{
			name:       "gt above threshold",
			comparison: slo.ComparisonGT,
			threshold:  0,
			value:      1,
			expected:   eval.VerdictMet,
		},
		{
			name:       "lt below threshold",
			comparison: slo.ComparisonLT,
			threshold:  100,
			value:      99.999,
			expected:   eval.VerdictMet,
		},
		{
			name:       "lt boundary is violated",
			comparison: slo.ComparisonLT,
			threshold:  100,
			value:      100,
			expected:   eval.VerdictViolated,
		},
		{
			name:       "eq exact match",
			comparison: slo.ComparisonEQ,
			threshold:  1,
			value:      1,
			expected:   eval.VerdictMet,
		},
		{
			name:       "eq is strict, no epsilon",
			comparison: slo.ComparisonEQ,
			threshold:  1,
			value:      1 + 1e-12,
			expected:   eval.VerdictViolated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &slo.Definition{
				Name:       "test-slo",
				Query:      "up",
				Comparison: tt.comparison,
				Threshold:  tt.threshold,
			}

			now := time.Now()
			record := eval.Evaluate(def, eval.MetricSample{
				SLOName:   def.Name,
				Value:     tt.value,
				FetchedAt: now,
			})

			if record.Verdict != tt.expected {
				t.Errorf("expected verdict %s, got %s", tt.expected, record.Verdict)
			}
			if record.Verdict == eval.VerdictIndeterminate {
				t.Error("Evaluate must never produce INDETERMINATE")
			}
			if record.SLOName != "test-slo" {
				t.Errorf("expected slo name test-slo, got %s", record.SLOName)
			}
			if record.Value != tt.value {
				t.Errorf("expected value %v carried through, got %v", tt.value, record.Value)
			}
			if !record.EvaluatedAt.Equal(now) {
				t.Errorf("expected evaluated_at %v, got %v", now, record.EvaluatedAt)
			}
		})
	}
}

func TestIndeterminate(t *testing.T) {
	now := time.Now()
	record := eval.Indeterminate("availability", now)

	if record.Verdict != eval.VerdictIndeterminate {
		t.Errorf("expected INDETERMINATE, got %s", record.Verdict)
	}
	if !math.IsNaN(record.Value) {
		t.Errorf("expected NaN value, got %v", record.Value)
	}
	if record.SLOName != "availability" {
		t.Errorf("expected slo name availability, got %s", record.SLOName)
	}
	if !record.EvaluatedAt.Equal(now) {
		t.Errorf("expected evaluated_at %v, got %v", now, record.EvaluatedAt)
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := &eval.FetchError{Kind: eval.FetchNetwork, Query: "up"}
	if cause.Unwrap() != nil {
		t.Error("expected nil cause")
	}

	if cause.Error() == "" {
		t.Error("expected non-empty error message")
	}
}
