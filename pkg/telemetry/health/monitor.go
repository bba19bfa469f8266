package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Monitor runs the readiness checks on a cron schedule so /ready serves
// the latest probe instead of hitting every backend per request.
type Monitor struct {
	checker  *Checker
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewMonitor creates a monitor. Common schedules:
//   - "@every 30s"   - every 30 seconds
//   - "*/5 * * * *"  - every 5 minutes
func NewMonitor(checker *Checker, schedule string) *Monitor {
	return &Monitor{
		checker:  checker,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "health.monitor"),
	}
}

// Start runs one probe immediately, then schedules the rest. The monitor
// stops when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("monitor already running")
	}

	if _, err := m.cron.AddFunc(m.schedule, func() { m.probe(ctx) }); err != nil {
		return fmt.Errorf("invalid probe schedule %q: %w", m.schedule, err)
	}

	m.probe(ctx)

	m.cron.Start()
	m.running = true

	m.logger.Info("health monitor started",
		"schedule", m.schedule,
		"checks", len(m.checker.Names()),
	)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

func (m *Monitor) probe(ctx context.Context) {
	status := m.checker.CheckReadiness(ctx)

	for name, result := range status.Checks {
		if !result.Healthy() {
			m.logger.Warn("component unhealthy",
				"check", name,
				"message", result.Message,
				"latency_ms", result.LatencyMS,
			)
		}
	}
	m.logger.Debug("readiness probe completed", "status", status.Status)
}

// Stop stops the scheduler and waits for a running probe to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		<-m.cron.Stop().Done()
		m.running = false
		m.logger.Info("health monitor stopped")
	}
}

// IsRunning returns true if the monitor is running.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.running
}
