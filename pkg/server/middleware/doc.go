// Package middleware provides the HTTP middleware chain of the orchestrator
// API.
//
// Requests pass through, outermost first:
//
//  1. Recovery: converts handler panics into 500 responses
//  2. RequestID: assigns X-Request-ID and puts it on the logging context
//  3. Logging: one access log line per request
//  4. Metrics: Prometheus request metrics labelled by route pattern
//  5. CORS: optional cross-origin headers and preflight handling
//  6. Timeout: per-request deadline, 504 when it passes unanswered
//  7. APIKey: optional API key check on the inspection routes
//  8. BodyLimit: caps request bodies so base64 payloads stay bounded
//
// Every error response uses the ErrorResponse shape:
//
//	{"error": {"code": "invalid_request", "message": "...", "field": "assetId"}}
package middleware
