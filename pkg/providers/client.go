package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"mediatrust-hq/orchestrator/pkg/telemetry/tracing"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response is kept in SourceError.
const maxErrorBody = 4 << 10

// Client is the shared HTTP base for every evidence backend. It provides
// connection pooling, retries with exponential backoff, a circuit breaker,
// an outbound rate limit and health tracking.
type Client struct {
	config  ClientConfig
	baseURL string
	client  *http.Client
	breaker *CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger

	health   SourceHealth
	healthMu sync.RWMutex
}

// NewClient creates a base client from config.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Name == "" {
		return nil, &ConfigError{Field: "name", Message: "name is required"}
	}
	if config.BaseURL == "" {
		return nil, &ConfigError{Source: config.Name, Field: "base_url", Message: "base URL is required"}
	}
	if !strings.HasPrefix(config.BaseURL, "http://") && !strings.HasPrefix(config.BaseURL, "https://") {
		return nil, &ConfigError{Source: config.Name, Field: "base_url", Message: "base URL must start with http:// or https://"}
	}
	config = config.withDefaults()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		config:  config,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		breaker: NewCircuitBreaker(config.FailureThreshold, config.RecoveryTimeout),
		logger:  slog.Default().With("component", "providers.client", "source", config.Name),
		health: SourceHealth{
			IsHealthy:             true,
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
	}
	if config.RateLimit > 0 {
		burst := int(config.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return c, nil
}

// Name returns the configured backend name.
func (c *Client) Name() string {
	return c.config.Name
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Breaker exposes the circuit breaker, e.g. to observe state changes.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// IsHealthy returns the current health status.
func (c *Client) IsHealthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.IsHealthy
}

// Health returns detailed health information.
func (c *Client) Health() SourceHealth {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	h := c.health
	h.Breaker = c.breaker.State().String()
	return h
}

// updateHealth is called once per logical call, after retries.
func (c *Client) updateHealth(err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastCheck = time.Now()
	if err == nil {
		if !c.health.IsHealthy {
			c.logger.Info("source marked healthy", "previous_failures", c.health.ConsecutiveFailures)
		}
		c.health.IsHealthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = ""
		c.health.LastSuccessfulRequest = time.Now()
		return
	}

	c.health.ConsecutiveFailures++
	c.health.LastError = err.Error()
	if c.health.ConsecutiveFailures >= c.config.FailureThreshold && c.health.IsHealthy {
		c.health.IsHealthy = false
		c.logger.Warn("source marked unhealthy",
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

func (c *Client) recordAttempt(success bool) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	if !success {
		c.health.FailedRequests++
	}
}

// Do sends body to path and returns the response body of a 2xx reply.
//
// Network errors, timeouts and 5xx replies are retried with exponential
// backoff. Other statuses fail immediately. Breaker-open and rate-limit
// rejections fail before any request is sent.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &SourceError{Source: c.config.Name, Message: "rejected", Cause: fmt.Errorf("%w: %v", ErrRateLimited, err)}
		}
	}
	if err := c.breaker.Allow(); err != nil {
		return nil, &SourceError{Source: c.config.Name, Message: "rejected", Cause: err}
	}

	out, err := c.do(ctx, method, path, body, contentType)

	var se *SourceError
	switch {
	case err == nil:
		c.breaker.Success()
	case errors.As(err, &se) && !se.retryable():
		// The backend answered; a 4xx says nothing about its availability.
		c.breaker.Success()
	default:
		c.breaker.Failure()
	}
	c.updateHealth(err)

	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	url := c.URL(path)
	backoff := retry.WithMaxRetries(uint64(c.config.MaxRetries), retry.NewExponential(c.config.Backoff))

	var out []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		data, err := c.attempt(ctx, method, url, body, contentType)
		if err == nil {
			out = data
			return nil
		}

		var se *SourceError
		if errors.As(err, &se) && se.retryable() && ctx.Err() == nil {
			c.logger.Warn("request failed, will retry",
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		var se *SourceError
		if !errors.As(err, &se) {
			err = &SourceError{Source: c.config.Name, Message: "request aborted", Cause: err}
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	tracing.Inject(ctx, req.Header)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		if strings.EqualFold(c.config.APIKeyHeader, "Authorization") {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		} else {
			req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
		}
	}

	c.logger.Debug("sending request", "method", method, "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordAttempt(false)
		return nil, &SourceError{Source: c.config.Name, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordAttempt(false)
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &SourceError{
			Source:     c.config.Name,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(text)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordAttempt(false)
		return nil, &SourceError{Source: c.config.Name, Message: "failed to read response", Cause: err}
	}
	c.recordAttempt(true)
	return data, nil
}

// DoJSON posts reqBody as JSON to path and decodes the reply into respBody.
func (c *Client) DoJSON(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	data, err := c.Do(ctx, http.MethodPost, path, payload, "application/json")
	if err != nil {
		return err
	}
	return c.decode(data, respBody)
}

func (c *Client) decode(data []byte, respBody any) error {
	if err := json.Unmarshal(data, respBody); err != nil {
		return &SourceError{
			Source:  c.config.Name,
			Message: "invalid response body",
			Cause:   fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}
	return nil
}

// HealthCheck calls GET {base}/health once, bypassing retries and the
// circuit breaker.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL("/health"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &SourceError{Source: c.config.Name, Message: "health check failed", Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return &SourceError{Source: c.config.Name, StatusCode: resp.StatusCode, Message: "health check failed"}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
