package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// AssetIDKey is the context key for the asset under inspection.
	AssetIDKey contextKey = "asset_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithAssetID adds an asset ID to the context.
func WithAssetID(ctx context.Context, assetID string) context.Context {
	return context.WithValue(ctx, AssetIDKey, assetID)
}

// GetAssetID retrieves the asset ID from the context.
func GetAssetID(ctx context.Context) string {
	if assetID, ok := ctx.Value(AssetIDKey).(string); ok {
		return assetID
	}
	return ""
}

// FromContext returns the default logger with the context's fields attached.
func FromContext(ctx context.Context) *slog.Logger {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return slog.Default()
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return slog.Default().With(args...)
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), id))
	}
	if id := GetAssetID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(AssetIDKey), id))
	}
	return attrs
}
