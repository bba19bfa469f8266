package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mediatrust-hq/orchestrator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	cfg := &config.MetricsConfig{Enabled: true, Namespace: "test", Subsystem: "orch"}
	return NewCollector(cfg, prometheus.NewRegistry())
}

func TestCollector_RecordInspection(t *testing.T) {
	c := newTestCollector(t)

	c.RecordInspection("flagged", 0.72, 1.5)
	c.RecordInspection("flagged", 0.61, 0.5)
	c.RecordInspection("approved", 0.9, 0.2)

	if got := testutil.ToFloat64(c.inspections.total.WithLabelValues("flagged")); got != 2 {
		t.Errorf("flagged count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.inspections.total.WithLabelValues("approved")); got != 1 {
		t.Errorf("approved count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.inspections.confidence); got != 2 {
		t.Errorf("confidence series = %d, want 2", got)
	}

	c.RecordInspectionFailure("persistence")
	if got := testutil.ToFloat64(c.inspections.failures.WithLabelValues("persistence")); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
}

func TestCollector_ObserveSource(t *testing.T) {
	c := newTestCollector(t)

	c.ObserveSource("provenance", "ok", 0.3)
	c.ObserveSource("provenance", "timeout", 10)
	c.ObserveSource("watermark", "skipped", 0)

	if got := testutil.ToFloat64(c.sources.calls.WithLabelValues("provenance", "timeout")); got != 1 {
		t.Errorf("timeout count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.sources.calls.WithLabelValues("watermark", "skipped")); got != 1 {
		t.Errorf("skipped count = %v, want 1", got)
	}
	// Skipped calls do not produce a latency series.
	if got := testutil.CollectAndCount(c.sources.duration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestCollector_BreakerAndHealth(t *testing.T) {
	c := newTestCollector(t)

	tests := []struct {
		state string
		want  float64
	}{
		{"open", 2},
		{"half-open", 1},
		{"closed", 0},
	}
	for _, tt := range tests {
		c.SetBreakerState("hive", tt.state)
		if got := testutil.ToFloat64(c.sources.breaker.WithLabelValues("hive")); got != tt.want {
			t.Errorf("breaker %s = %v, want %v", tt.state, got, tt.want)
		}
	}

	c.UpdateSourceHealth("hive", false)
	if got := testutil.ToFloat64(c.sources.health.WithLabelValues("hive")); got != 0 {
		t.Errorf("health = %v, want 0", got)
	}
	c.UpdateSourceHealth("hive", true)
	if got := testutil.ToFloat64(c.sources.health.WithLabelValues("hive")); got != 1 {
		t.Errorf("health = %v, want 1", got)
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c := newTestCollector(t)
	c.cardinalityLimiter = NewCardinalityLimiter(1)

	c.RecordHTTPRequest("POST", "/inspect", 200, 120*time.Millisecond, 4096)
	c.RecordHTTPRequest("GET", "/no/such/route", 404, time.Millisecond, 0)

	if got := testutil.ToFloat64(c.requests.requestsTotal.WithLabelValues("POST", "/inspect", "200")); got != 1 {
		t.Errorf("inspect count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.requests.requestsTotal.WithLabelValues("GET", "other", "404")); got != 1 {
		t.Errorf("over-limit route should be folded into other, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: false}
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.RecordInspection("reject", 0.95, 1)
	c.ObserveSource("provenance", "ok", 1)
	c.RecordHTTPRequest("GET", "/health", 200, time.Millisecond, 0)

	if got := testutil.CollectAndCount(c.inspections.total); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}
	if cfg.Namespace != "mediatrust" || cfg.Subsystem != "orchestrator" {
		t.Errorf("defaults not applied: %q/%q", cfg.Namespace, cfg.Subsystem)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(t)
	c.RecordInspection("unknown", 0.5, 0.1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_orch_inspections_total{verdict="unknown"} 1`) {
		t.Errorf("metrics output missing inspection counter:\n%s", body)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("first two label sets should be allowed")
	}
	if cl.Allow("c") {
		t.Error("third label set should be rejected")
	}
	if !cl.Allow("a") {
		t.Error("known label set should stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}
