package providers

import "context"

// Backend is implemented by every HTTP evidence client. It exposes what the
// readiness monitor and the metrics collector need, independent of which
// evidence capability the client implements.
type Backend interface {
	// Name returns the configured backend name.
	Name() string

	// HealthCheck performs a single reachability probe.
	HealthCheck(ctx context.Context) error

	// Health returns the health tracked from live traffic.
	Health() SourceHealth

	// Breaker returns the backend's circuit breaker.
	Breaker() *CircuitBreaker

	// Close releases HTTP resources.
	Close() error
}
