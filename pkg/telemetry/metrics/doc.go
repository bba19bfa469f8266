// Package metrics provides Prometheus metrics collection for the orchestrator.
//
// # Metrics Categories
//
//   - Inspection Metrics: verdict counts, confidence, end-to-end latency, failures
//   - Source Metrics: evidence call outcomes and latency, breaker state, health
//   - Request Metrics: HTTP request count, duration, body size, in-flight
//
// All names carry the configured namespace and subsystem, e.g.
// mediatrust_orchestrator_inspections_total.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Evidence fan-out and inspection service report directly.
//	coord := evidence.NewCoordinator(sources, evidence.WithObserver(collector))
//	svc := inspection.NewService(coord, store, inspection.WithRecorder(collector))
//
//	// Breaker transitions.
//	client.Breaker().OnStateChange(func(_, to providers.BreakerState) {
//		collector.SetBreakerState(client.Name(), to.String())
//	})
//
//	router.Handle("/metrics", collector.Handler())
//
// When MetricsConfig.Enabled is false every Record call is a no-op, but the
// handler still serves the (empty) registry.
package metrics
