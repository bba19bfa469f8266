package metrics

import (
	"mediatrust-hq/orchestrator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// InspectionMetrics tracks verdicts.
//
// Metrics:
//   - inspections_total: completed inspections by verdict
//   - inspection_failures_total: failed inspections by reason
//   - inspection_confidence: fused confidence histogram by verdict
//   - inspection_duration_seconds: end-to-end inspect latency
type InspectionMetrics struct {
	total      *prometheus.CounterVec
	failures   *prometheus.CounterVec
	confidence *prometheus.HistogramVec
	duration   prometheus.Histogram
}

// NewInspectionMetrics creates and registers inspection metrics.
func NewInspectionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *InspectionMetrics {
	im := &InspectionMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "inspections_total",
				Help:      "Total number of completed inspections by verdict",
			},
			[]string{"verdict"},
		),

		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "inspection_failures_total",
				Help:      "Total number of inspections that returned an error",
			},
			[]string{"reason"},
		),

		confidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "inspection_confidence",
				Help:      "Fused verdict confidence",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"verdict"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "inspection_duration_seconds",
				Help:      "End-to-end inspection latency in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}

	registry.MustRegister(im.total, im.failures, im.confidence, im.duration)

	return im
}

// Record records a completed inspection.
func (im *InspectionMetrics) Record(verdict string, confidence, seconds float64) {
	im.total.WithLabelValues(verdict).Inc()
	im.confidence.WithLabelValues(verdict).Observe(confidence)
	im.duration.Observe(seconds)
}

// RecordFailure counts a failed inspection.
func (im *InspectionMetrics) RecordFailure(reason string) {
	im.failures.WithLabelValues(reason).Inc()
}
