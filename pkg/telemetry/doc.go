// Package telemetry groups the orchestrator's observability packages.
//
// # Components
//
//   - logging: structured slog logging with request-scoped fields and
//     credential redaction
//   - metrics: Prometheus collectors for HTTP traffic, inspections and
//     evidence sources
//   - tracing: OpenTelemetry tracing exported over OTLP gRPC
//   - health: liveness, readiness and version endpoints, with a cron-driven
//     readiness monitor
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: cfg.Telemetry.Logging.Level})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//
// Each component is independently configured under the telemetry section of
// the configuration file and can be disabled without affecting the others.
package telemetry
