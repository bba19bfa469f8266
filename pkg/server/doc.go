// Package server provides the HTTP server of the inspection orchestrator.
//
// # Routes
//
//   - POST /inspect: gather evidence for an asset, fuse a verdict, persist
//     and return the audit record
//   - GET /report/{assetId}: return the stored record, 404 when none exists
//   - GET /health: liveness probe
//   - GET /ready: readiness from the last backend probe, 503 when degraded
//   - GET /version: build information
//   - GET /metrics: Prometheus exposition (path configurable)
//
// # Errors
//
// Service errors are mapped at this boundary: inspection.ValidationError is
// a 400, inspection.ErrNotFound a 404, an expired request deadline a 504 and
// anything else a 500 whose body does not leak the cause. When API keys are
// configured, /inspect and /report answer 401 without one.
//
// # Lifecycle
//
//	srv := server.NewServer(&cfg.Server, server.Dependencies{
//	    Inspector: svc,
//	    Health:    checker,
//	    Metrics:   collector,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled, then drains in-flight requests for
// up to the configured shutdown timeout. Signal handling is left to the
// caller. With server.tls enabled the listener serves HTTPS and picks up
// renewed certificates without a restart (see package certs).
package server
