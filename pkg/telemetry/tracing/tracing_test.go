package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediatrust-hq/orchestrator/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installRecorder swaps in an in-memory provider for the test.
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})
	return recorder
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if tracer.Enabled() {
		t.Error("tracer should be disabled")
	}

	_, span := tracer.Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer produced a real span")
	}
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "test"); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestNew_InvalidSampler(t *testing.T) {
	cfg := &config.TracingConfig{Enabled: true, Sampler: "sometimes", Endpoint: "localhost:4317"}
	if _, err := New(cfg, "test"); err == nil {
		t.Error("expected error for unknown sampler")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.25, false},
		{SamplerRatio, 1.5, true},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		s, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
		if err == nil && s == nil {
			t.Errorf("createSampler(%q) returned nil sampler", tt.strategy)
		}
	}
}

func TestHTTPMiddleware_JoinsIncomingTrace(t *testing.T) {
	recorder := installRecorder(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	var seen string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/inspect", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != traceID {
		t.Errorf("handler trace ID = %q, want %q", seen, traceID)
	}
	if rec.Header().Get("X-Trace-ID") != traceID {
		t.Errorf("X-Trace-ID = %q", rec.Header().Get("X-Trace-ID"))
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "POST /inspect" {
		t.Fatalf("spans = %v", spans)
	}
}

func TestInject(t *testing.T) {
	installRecorder(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "outbound")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)

	if headers.Get("traceparent") == "" {
		t.Error("traceparent header not injected")
	}
}

func TestSetStatus(t *testing.T) {
	recorder := installRecorder(t)
	tracer := otel.Tracer("test")

	_, failed := tracer.Start(context.Background(), "failed")
	SetStatus(failed, errors.New("boom"))
	failed.End()

	_, ok := tracer.Start(context.Background(), "ok")
	SetStatus(ok, nil)
	ok.End()

	spans := recorder.Ended()
	if spans[0].Status().Code != codes.Error || len(spans[0].Events()) != 1 {
		t.Errorf("failed span status = %v, events = %d", spans[0].Status(), len(spans[0].Events()))
	}
	if spans[1].Status().Code != codes.Ok {
		t.Errorf("ok span status = %v", spans[1].Status())
	}
}
