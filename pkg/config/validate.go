package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var (
	validModalities     = map[string]bool{"image": true, "video": true, "audio": true, "text": true}
	validDetectorTypes  = map[string]bool{"sensity": true, "hive": true, "reality_defender": true}
	validAuditBackends  = map[string]bool{AuditBackendMemory: true, AuditBackendSQLite: true, AuditBackendPostgres: true}
	validAssetBackends  = map[string]bool{AssetBackendMemory: true, AssetBackendS3: true, AssetBackendNone: true}
	validSQLiteDrivers  = map[string]bool{"sqlite": true, "sqlite3": true}
	validLogLevels      = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats     = map[string]bool{"json": true, "text": true}
	validTracingSampler = map[string]bool{"always": true, "never": true, "ratio": true}
)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateSources(&cfg.Sources)...)
	errs = append(errs, validateInspection(&cfg.Inspection)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateAssets(&cfg.Assets)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	for field, d := range map[string]time.Duration{
		"server.read_timeout":     cfg.ReadTimeout,
		"server.write_timeout":    cfg.WriteTimeout,
		"server.idle_timeout":     cfg.IdleTimeout,
		"server.shutdown_timeout": cfg.ShutdownTimeout,
		"server.request_timeout":  cfg.RequestTimeout,
	} {
		if d < 0 {
			errs = append(errs, FieldError{Field: field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}

	errs = append(errs, validateTLS(&cfg.TLS)...)

	for i, key := range cfg.Auth.APIKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("server.auth.api_keys[%d]", i),
				Message: "api key must not be empty",
			})
		}
	}

	return errs
}

// validateTLS validates listener TLS settings.
func validateTLS(cfg *TLSConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if cfg.CertFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.cert_file", Message: "cert_file is required when TLS is enabled"})
	}
	if cfg.KeyFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.key_file", Message: "key_file is required when TLS is enabled"})
	}
	switch cfg.MinVersion {
	case "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("min_version must be 1.2 or 1.3 (got %q)", cfg.MinVersion),
		})
	}
	switch cfg.ClientAuth {
	case "require", "verify_if_given":
	default:
		errs = append(errs, FieldError{
			Field:   "server.tls.client_auth",
			Message: fmt.Sprintf("client_auth must be require or verify_if_given (got %q)", cfg.ClientAuth),
		})
	}
	return errs
}

// validateSources validates every evidence backend.
func validateSources(cfg *SourcesConfig) []FieldError {
	var errs []FieldError

	errs = append(errs, validateSource("sources.provenance", &cfg.Provenance)...)
	errs = append(errs, validateSource("sources.watermark", &cfg.Watermark)...)

	names := make(map[string]int)
	for i := range cfg.Detectors {
		d := &cfg.Detectors[i]
		prefix := fmt.Sprintf("sources.detectors[%d]", i)

		if !validDetectorTypes[strings.ToLower(d.Type)] {
			errs = append(errs, FieldError{
				Field:   prefix + ".type",
				Message: fmt.Sprintf("invalid detector type %q: must be 'sensity', 'hive', or 'reality_defender'", d.Type),
			})
		}
		if d.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required for a listed detector",
			})
		}
		errs = append(errs, validateSource(prefix, &d.SourceConfig)...)

		if prev, dup := names[d.Name]; dup && d.Name != "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("duplicate detector name %q (also used by detectors[%d])", d.Name, prev),
			})
		}
		names[d.Name] = i
	}

	return errs
}

// validateSource validates one backend. An empty base URL is allowed: the
// source is simply not configured.
func validateSource(prefix string, s *SourceConfig) []FieldError {
	var errs []FieldError

	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: fmt.Sprintf("invalid URL %q: must be an absolute http(s) URL", s.BaseURL),
			})
		}
	}
	if s.Timeout < 0 {
		errs = append(errs, FieldError{Field: prefix + ".timeout", Message: "timeout must be positive"})
	}
	if s.Backoff < 0 {
		errs = append(errs, FieldError{Field: prefix + ".backoff", Message: "backoff must be positive"})
	}
	if s.MaxRetries > 10 {
		errs = append(errs, FieldError{Field: prefix + ".max_retries", Message: "max retries exceeds reasonable limit (10)"})
	}
	if s.RecoveryTimeout < 0 {
		errs = append(errs, FieldError{Field: prefix + ".recovery", Message: "recovery timeout must be positive"})
	}
	if s.RateLimit < 0 {
		errs = append(errs, FieldError{Field: prefix + ".rate_limit", Message: "rate limit must be non-negative"})
	}

	return errs
}

// validateInspection validates inspection defaults.
func validateInspection(cfg *InspectionConfig) []FieldError {
	var errs []FieldError

	if !validModalities[cfg.DefaultModality] {
		errs = append(errs, FieldError{
			Field:   "inspection.default_modality",
			Message: fmt.Sprintf("invalid modality %q: must be 'image', 'video', 'audio', or 'text'", cfg.DefaultModality),
		})
	}
	if cfg.SourceTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "inspection.source_timeout",
			Message: "source timeout must be positive",
		})
	}

	return errs
}

// validateAudit validates audit store configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !validAuditBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'sqlite', or 'postgres'", cfg.Backend),
		})
	}

	switch cfg.Backend {
	case AuditBackendSQLite:
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "sqlite path is required when backend is 'sqlite'",
			})
		}
		if !validSQLiteDrivers[cfg.SQLite.Driver] {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 || cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.max_open_conns",
				Message: "connection limits must be non-negative",
			})
		}
	case AuditBackendPostgres:
		if cfg.Postgres.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "audit.postgres.dsn",
				Message: "dsn is required when backend is 'postgres'",
			})
		}
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.Address == "" {
			errs = append(errs, FieldError{
				Field:   "audit.cache.address",
				Message: "redis address is required when the cache is enabled",
			})
		}
		if cfg.Cache.TTL < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.cache.ttl",
				Message: "ttl must be positive",
			})
		}
	}

	return errs
}

// validateAssets validates asset store configuration.
func validateAssets(cfg *AssetsConfig) []FieldError {
	var errs []FieldError

	if !validAssetBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "assets.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 's3', or 'none'", cfg.Backend),
		})
	}

	if cfg.Backend == AssetBackendS3 {
		if cfg.S3.Bucket == "" {
			errs = append(errs, FieldError{
				Field:   "assets.s3.bucket",
				Message: "bucket is required when backend is 's3'",
			})
		}
		if (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
			errs = append(errs, FieldError{
				Field:   "assets.s3.access_key_id",
				Message: "access key id and secret access key must be set together",
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !validLogLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}
	if !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if !validTracingSampler[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.CheckTimeout < 0 || cfg.Health.CheckTimeout > 60*time.Second {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be between 0 and 60s",
		})
	}
	if _, err := cron.ParseStandard(cfg.Health.ProbeSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.probe_schedule",
			Message: fmt.Sprintf("invalid schedule %q: %v", cfg.Health.ProbeSchedule, err),
		})
	}

	return errs
}
