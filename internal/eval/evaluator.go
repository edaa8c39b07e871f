package eval

import (
	"math"
	"time"

	"slochecker/internal/slo"
)

// Evaluate compares a fetched sample against a definition's objective.
// Pure function: MET iff the comparison holds exactly, VIOLATED
// otherwise. It is only invoked on a successful fetch and never
// produces INDETERMINATE.
func Evaluate(def *slo.Definition, sample MetricSample) Record {
	verdict := VerdictViolated
	if def.Comparison.Holds(sample.Value, def.Threshold) {
		verdict = VerdictMet
	}

	return Record{
		SLOName:     def.Name,
		Value:       sample.Value,
		Verdict:     verdict,
		EvaluatedAt: sample.FetchedAt,
	}
}

// Indeterminate synthesizes the record stored when the measurement for
// an SLO could not be obtained. Value is NaN; stores persist it as NULL.
func Indeterminate(name string, at time.Time) Record {
	return Record{
		SLOName:     name,
		Value:       math.NaN(),
		Verdict:     VerdictIndeterminate,
		EvaluatedAt: at,
	}
}
