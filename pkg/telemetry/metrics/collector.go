package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"mediatrust-hq/orchestrator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns every Prometheus metric the orchestrator exports and
// provides a single recording surface for the other packages.
//
// It satisfies evidence.Observer (ObserveSource) and inspection.Recorder
// (RecordInspection), so it can be handed to the coordinator and the
// inspection service directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requests    *RequestMetrics
	inspections *InspectionMetrics
	sources     *SourceMetrics

	// Route labels come from the router, but unmatched paths fall back to
	// the raw URL path; cap how many distinct values we keep.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry with the Go
// runtime and process collectors is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	coord := evidence.NewCoordinator(sources, evidence.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		requests:           NewRequestMetrics(cfg, registry),
		inspections:        NewInspectionMetrics(cfg, registry),
		sources:            NewSourceMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// RecordInspection records a completed inspection.
//
// Parameters:
//   - verdict: "approved", "flagged", "reject" or "unknown"
//   - confidence: the fused confidence in [0,1]
//   - seconds: end-to-end inspect latency
func (c *Collector) RecordInspection(verdict string, confidence float64, seconds float64) {
	if !c.config.Enabled {
		return
	}

	c.inspections.Record(verdict, confidence, seconds)
}

// RecordInspectionFailure counts an inspection that ended in an error.
//
// Parameters:
//   - reason: "validation", "persistence" or "internal"
func (c *Collector) RecordInspectionFailure(reason string) {
	if !c.config.Enabled {
		return
	}

	c.inspections.RecordFailure(reason)
}

// ObserveSource records the outcome of one evidence source call.
//
// Parameters:
//   - source: "provenance", "watermark", "detectors" or "detector:<name>"
//   - outcome: "ok", "error", "timeout" or "skipped"
//   - seconds: call latency (0 when skipped)
func (c *Collector) ObserveSource(source, outcome string, seconds float64) {
	if !c.config.Enabled {
		return
	}

	c.sources.Observe(source, outcome, seconds)
}

// SetBreakerState exports a backend's circuit breaker state.
//
// Parameters:
//   - source: backend name
//   - state: "closed", "half-open" or "open"
func (c *Collector) SetBreakerState(source, state string) {
	if !c.config.Enabled {
		return
	}

	c.sources.SetBreakerState(source, state)
}

// UpdateSourceHealth updates the health gauge of an evidence backend.
// The gauge is 1 when healthy and 0 otherwise.
func (c *Collector) UpdateSourceHealth(source string, healthy bool) {
	if !c.config.Enabled {
		return
	}

	c.sources.UpdateHealth(source, healthy)
}

// RecordHTTPRequest records a served HTTP request.
//
// Parameters:
//   - method: HTTP method
//   - route: route pattern (e.g. "/report/{assetId}")
//   - status: response status code
//   - duration: time to serve the request
//   - bodyBytes: request body size
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration, bodyBytes int64) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", method, route)) {
		route = "other"
	}

	c.requests.Record(method, route, strconv.Itoa(status), duration, bodyBytes)
}

// InFlight returns the gauge of requests currently being served.
func (c *Collector) InFlight() prometheus.Gauge {
	return c.requests.inFlight
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
