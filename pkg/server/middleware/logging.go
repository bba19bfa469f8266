package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging writes one structured access log line per request. 4xx responses
// are logged at WARN and 5xx at ERROR.
//
// Log format (JSON):
//
//	{
//	  "time": "2026-10-15T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "request_id": "1b4e28ba-2fa1-41d2-883f-0016d3cca427",
//	  "method": "POST",
//	  "path": "/inspect",
//	  "status": 200,
//	  "latency_ms": 412
//	}
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		logger := slog.Default()

		logger.DebugContext(r.Context(), "request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		if rw.statusCode >= 500 {
			level = slog.LevelError
		} else if rw.statusCode >= 400 {
			level = slog.LevelWarn
		}

		logger.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}
