package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Status values.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc is a function that performs a health check for a component.
// It returns nil if the component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Pinger is implemented by the audit and asset stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger to a CheckFunc.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Status is "ok" or "unhealthy"
	Status string `json:"status"`

	// Message carries the failure reason
	Message string `json:"message,omitempty"`

	// LatencyMS is how long the check took in milliseconds
	LatencyMS int64 `json:"latency_ms"`
}

// Healthy reports whether the check passed.
func (r CheckResult) Healthy() bool {
	return r.Status == StatusOK
}

// HealthStatus represents the overall health status of the system.
type HealthStatus struct {
	// Status is the overall status: "ok", "ready" or "degraded"
	Status string `json:"status"`

	// Checks contains the status of individual components (for readiness)
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the checks ran
	Timestamp time.Time `json:"timestamp"`
}

// Ready reports whether every component passed.
func (s HealthStatus) Ready() bool {
	return s.Status == StatusReady
}

// Checker runs the registered component checks and remembers the most
// recent readiness result.
type Checker struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	last      *HealthStatus
	listeners []func(name string, result CheckResult)

	// Timeout for individual checks
	checkTimeout time.Duration
}

var (
	// ErrCheckTimeout is reported when a health check times out
	ErrCheckTimeout = errors.New("health check timeout")
)

// New creates a new health checker with the specified check timeout.
// If timeout is 0, defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a health check function for a named component.
// If a check with the same name already exists, it will be replaced.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// OnResult registers fn to receive every individual check result.
func (c *Checker) OnResult(fn func(name string, result CheckResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, fn)
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness reports that the process is running.
func (c *Checker) CheckLiveness(_ context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
	}
}

// CheckReadiness runs every registered check concurrently, stores the
// aggregate as the latest result and returns it.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	listeners := append([]func(string, CheckResult){}, c.listeners...)
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}

	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if !result.Healthy() {
			status = StatusDegraded
		}
	}

	snapshot := HealthStatus{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now().UTC(),
	}

	c.mu.Lock()
	c.last = &snapshot
	c.mu.Unlock()

	for name, result := range results {
		for _, fn := range listeners {
			fn(name, result)
		}
	}

	return snapshot
}

// Last returns the most recent readiness result, if any.
func (c *Checker) Last() (HealthStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.last == nil {
		return HealthStatus{}, false
	}
	return *c.last, true
}

// Readiness returns the most recent readiness result, running the checks
// when none has been recorded yet.
func (c *Checker) Readiness(ctx context.Context) HealthStatus {
	if last, ok := c.Last(); ok {
		return last
	}
	return c.CheckReadiness(ctx)
}

// runCheck executes a single health check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	// The check may ignore its context; don't wait for it past the timeout.
	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		latency := time.Since(start).Milliseconds()
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), LatencyMS: latency}
		}
		return CheckResult{Status: StatusOK, LatencyMS: latency}

	case <-checkCtx.Done():
		return CheckResult{
			Status:    StatusUnhealthy,
			Message:   ErrCheckTimeout.Error(),
			LatencyMS: time.Since(start).Milliseconds(),
		}
	}
}
