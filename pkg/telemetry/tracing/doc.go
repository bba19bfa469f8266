// Package tracing configures OpenTelemetry distributed tracing.
//
// New installs an SDK tracer provider exporting over OTLP gRPC, with a
// parent-based sampler (always, never or ratio) and the W3C trace context
// propagator. Spans are opened around the inspect request, each evidence
// fan-out unit and persistence; the HTTP middleware joins incoming traces
// and the evidence clients inject trace context into their outgoing calls.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// With tracing disabled a noop tracer is used.
package tracing
