package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"mediatrust-hq/orchestrator/pkg/config"
)

// APIKey rejects requests that do not carry one of cfg.APIKeys, either in
// cfg.Header or as an Authorization bearer token. It is a pass-through when
// no keys are configured.
func APIKey(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg == nil || len(cfg.APIKeys) == 0 {
			return next
		}

		header := cfg.Header
		if header == "" {
			header = config.DefaultAPIKeyHeader
		}
		digests := make([][sha256.Size]byte, len(cfg.APIKeys))
		for i, key := range cfg.APIKeys {
			digests[i] = sha256.Sum256([]byte(key))
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r, header)
			if key == "" {
				slog.WarnContext(r.Context(), "missing API key",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				unauthorized(w, "missing API key")
				return
			}
			if !matchKey(digests, key) {
				slog.WarnContext(r.Context(), "invalid API key",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				unauthorized(w, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request, header string) string {
	if key := strings.TrimSpace(r.Header.Get(header)); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// matchKey compares digests so every comparison takes the same time
// regardless of key length.
func matchKey(digests [][sha256.Size]byte, key string) bool {
	sum := sha256.Sum256([]byte(key))
	match := 0
	for i := range digests {
		match |= subtle.ConstantTimeCompare(digests[i][:], sum[:])
	}
	return match == 1
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="orchestrator"`)
	WriteError(w, http.StatusUnauthorized, ErrorDetail{
		Code:    CodeUnauthorized,
		Message: msg,
	})
}
