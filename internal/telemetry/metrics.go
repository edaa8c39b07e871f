package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The checker instruments its own loop the same way the probers it
// watches do: counters per SLO pipeline stage, exposed on /metrics.
var (
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slochecker_evaluations_total",
		Help: "Total number of completed SLO evaluations by verdict",
	}, []string{"slo", "verdict"})

	FetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slochecker_fetch_errors_total",
		Help: "Total number of metrics backend fetch failures by kind",
	}, []string{"slo", "kind"})

	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slochecker_store_errors_total",
		Help: "Total number of result store failures by kind",
	}, []string{"kind"})

	SkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slochecker_skipped_evaluations_total",
		Help: "Total number of tick evaluations skipped because the previous pipeline was still in flight",
	}, []string{"slo"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slochecker_tick_duration_seconds",
		Help:    "Wall time spent completing all SLO pipelines launched by one tick",
		Buckets: prometheus.DefBuckets,
	})
)
