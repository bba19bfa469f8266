package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPRecorder receives one observation per served request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration, bodyBytes int64)
	InFlight() prometheus.Gauge
}

// Metrics records request count, latency and body size labelled by the chi
// route pattern, so /report/{assetId} is one series regardless of the ID.
// It must be installed with Router.Use so the route context is populated.
func Metrics(rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			inFlight := rec.InFlight()
			inFlight.Inc()
			defer inFlight.Dec()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			bodyBytes := r.ContentLength
			if bodyBytes < 0 {
				bodyBytes = 0
			}

			rec.RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start), bodyBytes)
		})
	}
}
