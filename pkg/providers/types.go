package providers

import "time"

// Default client settings.
const (
	DefaultTimeout          = 10 * time.Second
	DefaultMaxRetries       = 2
	DefaultBackoff          = 250 * time.Millisecond
	DefaultFailureThreshold = 3
	DefaultRecoveryTimeout  = 30 * time.Second
)

// ClientConfig holds the connection settings for one evidence backend.
type ClientConfig struct {
	// Name identifies the backend in logs, metrics and errors
	Name string

	// BaseURL is the backend root; a trailing slash is ignored
	BaseURL string

	// APIKey is sent with every request when set
	APIKey string

	// APIKeyHeader is the header carrying APIKey. Default "Authorization",
	// which sends "Bearer <key>"; any other header receives the raw key.
	APIKeyHeader string

	// Timeout bounds each HTTP attempt
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int

	// Backoff is the base delay of the exponential retry schedule
	Backoff time.Duration

	// FailureThreshold consecutive failures open the circuit (<= 0 disables)
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a trial call
	RecoveryTimeout time.Duration

	// RateLimit caps outbound requests per second (0 = unlimited)
	RateLimit float64

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// withDefaults fills zero values. MaxRetries and FailureThreshold keep
// explicit zeros only when negative values are used to disable them.
func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if c.APIKeyHeader == "" {
		c.APIKeyHeader = "Authorization"
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	return c
}

// SourceHealth contains health status information for a backend.
type SourceHealth struct {
	// IsHealthy indicates if the backend is currently healthy
	IsHealthy bool `json:"healthy"`

	// Breaker is the circuit breaker state
	Breaker string `json:"breaker"`

	// LastCheck is when the health was last updated
	LastCheck time.Time `json:"lastCheck"`

	// ConsecutiveFailures is the number of consecutive failed calls
	ConsecutiveFailures int `json:"consecutiveFailures"`

	// LastError is the most recent error message
	LastError string `json:"lastError,omitempty"`

	// LastSuccessfulRequest is when the last successful call completed
	LastSuccessfulRequest time.Time `json:"lastSuccessfulRequest"`

	// TotalRequests counts every HTTP attempt
	TotalRequests int64 `json:"totalRequests"`

	// FailedRequests counts failed HTTP attempts
	FailedRequests int64 `json:"failedRequests"`
}
