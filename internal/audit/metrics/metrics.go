// Package metrics holds the Prometheus metrics for the audit pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments audit runs.
type Metrics struct {
	RunsStarted        prometheus.Counter
	RunsCompleted      *prometheus.CounterVec
	PipelineFailures   *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	DocumentsRejected  prometheus.Counter
	AdjudicatorLatency prometheus.Histogram
}

// New creates and registers all audit metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docaudit_runs_started_total",
			Help: "Total number of audit runs started",
		}),
		RunsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_runs_completed_total",
			Help: "Total number of audit runs that persisted a decision",
		}, []string{"decision"}),
		PipelineFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_pipeline_failures_total",
			Help: "Total number of runs aborted by an external-service failure",
		}, []string{"stage"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docaudit_run_duration_seconds",
			Help:    "End-to-end audit run duration",
			Buckets: prometheus.DefBuckets,
		}),
		DocumentsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docaudit_documents_rejected_total",
			Help: "Total number of documents marked rejected by audit outcomes",
		}),
		AdjudicatorLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docaudit_adjudicator_latency_seconds",
			Help:    "Latency of adjudication calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveRun records one completed run.
func (m *Metrics) ObserveRun(decision string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsCompleted.WithLabelValues(decision).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// ObserveFailure records a pipeline failure at a stage.
func (m *Metrics) ObserveFailure(stage string) {
	if m == nil {
		return
	}
	m.PipelineFailures.WithLabelValues(stage).Inc()
}
