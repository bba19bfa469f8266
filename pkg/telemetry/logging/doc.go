// Package logging configures the process slog logger.
//
// The logger writes JSON or text, its level can change at runtime (config
// reload, --log-level), and request-scoped fields stored on the context with
// WithRequestID and WithAssetID are appended to every *Context log call.
//
// With redaction enabled, attributes named like secrets (password, api_key,
// dsn, ...) and base64 asset payloads are replaced, and credentials embedded
// in URLs or bearer tokens are masked inside string values and errors.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redact: true})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "inspection started")  // includes request_id
package logging
