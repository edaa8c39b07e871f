package eval

import (
	"context"
	"fmt"
	"time"
)

// Verdict is the outcome of comparing a measured value against an
// SLO's threshold.
type Verdict string

const (
	VerdictMet      Verdict = "MET"
	VerdictViolated Verdict = "VIOLATED"

	// VerdictIndeterminate means the underlying measurement could not
	// be obtained. It is synthesized by the scheduler on fetch failure,
	// never by Evaluate.
	VerdictIndeterminate Verdict = "INDETERMINATE"
)

// MetricSample is one fetched measurement. Samples are created fresh
// each cycle and are not persisted directly.
type MetricSample struct {
	SLOName   string
	Value     float64
	FetchedAt time.Time
}

// Record is one evaluation outcome. Records are immutable once created;
// history is append-only. Indeterminate records carry Value = NaN.
type Record struct {
	SLOName     string
	Value       float64
	Verdict     Verdict
	EvaluatedAt time.Time
}

// MetricsSource fetches the current value of a backend query at a given
// instant. Implementations perform exactly one outbound call per
// invocation; retry policy belongs to the caller.
type MetricsSource interface {
	FetchInstant(ctx context.Context, query string, at time.Time) (float64, error)
}

// FetchErrorKind classifies a failed metrics fetch.
type FetchErrorKind string

const (
	// FetchNetwork: connection failure or timeout before a response.
	FetchNetwork FetchErrorKind = "network"
	// FetchBackend: non-2xx status or a backend-reported error.
	FetchBackend FetchErrorKind = "backend"
	// FetchAmbiguous: zero or more than one result series where exactly
	// one scalar was expected.
	FetchAmbiguous FetchErrorKind = "ambiguous"
	// FetchParse: response body not decodable.
	FetchParse FetchErrorKind = "parse"
)

// FetchError is the typed error returned by MetricsSource implementations.
type FetchError struct {
	Kind  FetchErrorKind
	Query string
	Err   error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s error for query %q: %v", e.Kind, e.Query, e.Err)
	}
	return fmt.Sprintf("fetch %s error for query %q", e.Kind, e.Query)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
