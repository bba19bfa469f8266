package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrust-hq/orchestrator/pkg/audit/storage"
	"mediatrust-hq/orchestrator/pkg/config"
	"mediatrust-hq/orchestrator/pkg/evidence"
	"mediatrust-hq/orchestrator/pkg/inspection"
	"mediatrust-hq/orchestrator/pkg/server/middleware"
	"mediatrust-hq/orchestrator/pkg/telemetry/health"
	"mediatrust-hq/orchestrator/pkg/telemetry/metrics"
)

type fixedGatherer struct {
	ev evidence.Evidence
}

func (g fixedGatherer) Gather(context.Context, evidence.Subject) evidence.Evidence {
	return g.ev.Clone()
}

type errInspector struct {
	err error
}

func (e errInspector) Inspect(context.Context, *inspection.Request) (*inspection.InspectResponse, error) {
	return nil, e.err
}

func (e errInspector) GetReport(context.Context, string) (*inspection.ReportResponse, error) {
	return nil, e.err
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
		MaxBodyBytes:    1 << 10,
	}
}

func newTestServer(t *testing.T, inspector Inspector) (*Server, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
	checker := health.New(time.Second)
	checker.RegisterCheck("audit", func(context.Context) error { return nil })

	srv := NewServer(testServerConfig(), Dependencies{
		Inspector: inspector,
		Health:    checker,
		Metrics:   collector,
		Version:   health.NewVersionInfo("1.2.3", "abc123", "2026-10-15"),
	})
	return srv, collector
}

func newService() *inspection.Service {
	gatherer := fixedGatherer{ev: evidence.Evidence{
		Detectors: []evidence.DetectorEvidence{{Label: "synthetic", Score: 0.95, ModelVersion: "v3"}},
	}}
	return inspection.NewService(gatherer, storage.NewMemoryStorage())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestInspectThenReport(t *testing.T) {
	srv, _ := newTestServer(t, newService())
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/inspect", `{"assetId":"asset-1","base64":"aGVsbG8=","metadata":{"source":"upload"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var inspected inspection.InspectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inspected))
	assert.Equal(t, "asset-1", inspected.AssetID)
	assert.Equal(t, "reject", string(inspected.Verdict))
	assert.Equal(t, 0.95, inspected.Confidence)
	assert.NotEmpty(t, inspected.StoredAt)

	w = do(t, h, http.MethodGet, "/report/asset-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report inspection.ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, inspected.Verdict, report.Verdict)
	assert.Equal(t, inspected.Confidence, report.Confidence)
	assert.Equal(t, inspected.StoredAt, report.StoredAt)
	assert.Equal(t, "upload", report.Metadata["source"])
}

func TestReport_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, newService())

	w := do(t, srv.Handler(), http.MethodGet, "/report/never-seen", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, middleware.CodeNotFound, decodeErr(t, w).Code)
}

func TestReport_EscapedAssetID(t *testing.T) {
	svc := newService()
	srv, _ := newTestServer(t, svc)
	h := srv.Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/inspect", `{"assetId":"a b"}`).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/report/a%20b", "").Code)
}

func TestReport_AssetIDDecodedOnce(t *testing.T) {
	svc := newService()
	srv, _ := newTestServer(t, svc)
	h := srv.Handler()

	tests := []struct {
		name    string
		assetID string
		target  string
	}{
		{"literal percent", "a%41", "/report/a%2541"},
		{"encoded slash", "x/y", "/report/x%2Fy"},
		{"slash and percent", "x/y%41", "/report/x%2Fy%2541"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"assetId":"` + tt.assetID + `"}`
			require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/inspect", body).Code)

			w := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var report inspection.ReportResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
			assert.Equal(t, tt.assetID, report.AssetID)
		})
	}

	// A double-decoding handler would look up "aA" here.
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/inspect", `{"assetId":"aA"}`).Code)
	w := do(t, h, http.MethodGet, "/report/a%2541", "")
	require.Equal(t, http.StatusOK, w.Code)
	var report inspection.ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "a%41", report.AssetID)
}

func TestInspect_ValidationErrors(t *testing.T) {
	srv, collector := newTestServer(t, newService())
	h := srv.Handler()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing asset id", `{"url":"https://example.com/a.png"}`, "assetId"},
		{"bad modality", `{"assetId":"a","modality":"hologram"}`, "modality"},
		{"bad base64", `{"assetId":"a","base64":"***"}`, "base64"},
		{"wrong type", `{"assetId":42}`, "assetId"},
		{"malformed json", `{"assetId":`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/inspect", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			detail := decodeErr(t, w)
			assert.Equal(t, middleware.CodeInvalidRequest, detail.Code)
			assert.Equal(t, tt.field, detail.Field)
		})
	}

	expected := `
# HELP mediatrust_orchestrator_inspection_failures_total Total number of inspections that returned an error
# TYPE mediatrust_orchestrator_inspection_failures_total counter
mediatrust_orchestrator_inspection_failures_total{reason="validation"} 5
`
	assert.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"mediatrust_orchestrator_inspection_failures_total"))
}

func TestInspect_BodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, newService())

	body := `{"assetId":"a","base64":"` + strings.Repeat("A", 2<<10) + `"}`
	w := do(t, srv.Handler(), http.MethodPost, "/inspect", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, middleware.CodeRequestTooLarge, decodeErr(t, w).Code)
}

func TestInspect_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"persistence failure", errors.New("disk full"), http.StatusInternalServerError, middleware.CodeInternal},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, middleware.CodeTimeout},
		{"not found", inspection.ErrNotFound, http.StatusNotFound, middleware.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, errInspector{err: tt.err})

			w := do(t, srv.Handler(), http.MethodPost, "/inspect", `{"assetId":"a"}`)

			assert.Equal(t, tt.status, w.Code)
			detail := decodeErr(t, w)
			assert.Equal(t, tt.code, detail.Code)
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, newService())
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "").Code)

	w := do(t, h, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)

	do(t, h, http.MethodGet, "/report/missing", "")
	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/report/{assetId}"`)

	w = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, middleware.CodeNotFound, decodeErr(t, w).Code)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/inspect", "").Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t, newService())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, srv.IsRunning, time.Second, 10*time.Millisecond)
	assert.Error(t, srv.Start(context.Background()), "second Start must fail")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, srv.IsRunning())
}

func TestServer_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testServerConfig()
	cfg.ListenAddress = ln.Addr().String()
	srv := NewServer(cfg, Dependencies{Inspector: newService()})

	err = srv.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, srv.IsRunning())
}

func TestServer_APIKeyProtectsInspectionRoutes(t *testing.T) {
	cfg := testServerConfig()
	cfg.Auth = config.AuthConfig{APIKeys: []string{"secret-key"}, Header: "X-API-Key"}
	checker := health.New(time.Second)
	srv := NewServer(cfg, Dependencies{Inspector: newService(), Health: checker})
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/inspect", `{"assetId":"asset-1","base64":"aGVsbG8="}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, middleware.CodeUnauthorized, decodeErr(t, w).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/report/asset-1", "").Code)

	req := httptest.NewRequest(http.MethodPost, "/inspect", strings.NewReader(`{"assetId":"asset-1","base64":"aGVsbG8="}`))
	req.Header.Set("X-API-Key", "secret-key")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code, "health stays open")
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/version", "").Code, "version stays open")
}

func TestServer_TLSMisconfigured(t *testing.T) {
	cfg := testServerConfig()
	cfg.TLS = config.TLSConfig{Enabled: true, CertFile: "/missing/tls.crt", KeyFile: "/missing/tls.key"}
	srv := NewServer(cfg, Dependencies{Inspector: newService()})

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS")
	assert.False(t, srv.IsRunning())
}
