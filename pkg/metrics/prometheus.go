package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal       *prometheus.CounterVec
	cacheOps         *prometheus.CounterVec
	skipsTotal       *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autozonex_scans_total",
				Help: "Zones returned by scan requests, labeled by status",
			},
			[]string{"status"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autozonex_report_cache_ops_total",
				Help: "Report cache operations by key class and outcome",
			},
			[]string{"key", "outcome"},
		),
		skipsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autozonex_zone_skips_total",
				Help: "Zones skipped during classification, by reason",
			},
			[]string{"reason"},
		),
		transitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autozonex_lifecycle_transitions_total",
				Help: "Lifecycle transitions recorded, by stage",
			},
			[]string{"stage"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autozonex_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autozonex_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScan records zones served for a scan status.
func (r *Recorder) RecordScan(status string, zones int) {
	r.scansTotal.WithLabelValues(status).Add(float64(zones))
}

// RecordCache records a cache hit/miss/error for a key class.
func (r *Recorder) RecordCache(key, outcome string) {
	r.cacheOps.WithLabelValues(key, outcome).Inc()
}

// RecordSkip records a zone excluded from classification.
func (r *Recorder) RecordSkip(reason string) {
	r.skipsTotal.WithLabelValues(reason).Inc()
}

// RecordTransition records a recorded lifecycle transition.
func (r *Recorder) RecordTransition(stage string) {
	r.transitionsTotal.WithLabelValues(stage).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
