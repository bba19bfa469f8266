package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Timeout bounds each request with context.WithTimeout. Handlers observe
// the deadline through the request context; if the deadline passes before
// the handler writes anything, a 504 is returned.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			if !rw.written && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				WriteError(rw, http.StatusGatewayTimeout, ErrorDetail{
					Code:    CodeTimeout,
					Message: "request timeout: the request took too long to complete",
				})
			}
		})
	}
}
