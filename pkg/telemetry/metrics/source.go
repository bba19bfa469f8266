package metrics

import (
	"mediatrust-hq/orchestrator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SourceMetrics tracks evidence backends.
//
// Metrics:
//   - source_calls_total: calls by source and outcome
//   - source_duration_seconds: call latency (skipped calls are not observed)
//   - source_breaker_state: 0=closed, 1=half-open, 2=open
//   - source_health: 1=healthy, 0=unhealthy
type SourceMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	breaker  *prometheus.GaugeVec
	health   *prometheus.GaugeVec
}

// NewSourceMetrics creates and registers evidence source metrics.
func NewSourceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SourceMetrics {
	sm := &SourceMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "source_calls_total",
				Help:      "Total number of evidence source calls by outcome",
			},
			[]string{"source", "outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "source_duration_seconds",
				Help:      "Evidence source call latency in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"source"},
		),

		breaker: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "source_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"source"},
		),

		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "source_health",
				Help:      "Evidence source health status (1=healthy, 0=unhealthy)",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(sm.calls, sm.duration, sm.breaker, sm.health)

	return sm
}

// Observe records one source call.
func (sm *SourceMetrics) Observe(source, outcome string, seconds float64) {
	sm.calls.WithLabelValues(source, outcome).Inc()
	if outcome != "skipped" {
		sm.duration.WithLabelValues(source).Observe(seconds)
	}
}

// SetBreakerState sets the breaker gauge.
func (sm *SourceMetrics) SetBreakerState(source, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	sm.breaker.WithLabelValues(source).Set(v)
}

// UpdateHealth sets the health gauge.
func (sm *SourceMetrics) UpdateHealth(source string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	sm.health.WithLabelValues(source).Set(v)
}
