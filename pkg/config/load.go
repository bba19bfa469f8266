package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ORCHESTRATOR_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path skips the file, so defaults
// and the environment alone configure the service.
//
// The loading sequence is:
// 1. Start from the boolean defaults
// 2. Decode the YAML file on top
// 3. Apply environment variable overrides
// 4. Fill remaining zero values and validate
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := base()
	if path != "" {
		fromFile, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fromFile
	}

	applyEnvOverrides(cfg, os.Getenv)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile decodes path on top of the boolean defaults.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := base()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. The deployment variable names (PORT, DATABASE_URL, ...)
// are applied first; ORCHESTRATOR_SECTION_FIELD variables take precedence.
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	applyLegacyEnv(cfg, getenv)

	env := func(name string) string { return getenv(EnvPrefix + name) }

	// Server overrides
	setString(&cfg.Server.ListenAddress, env("SERVER_LISTEN_ADDRESS"))
	setDuration(&cfg.Server.ReadTimeout, env("SERVER_READ_TIMEOUT"))
	setDuration(&cfg.Server.WriteTimeout, env("SERVER_WRITE_TIMEOUT"))
	setDuration(&cfg.Server.RequestTimeout, env("SERVER_REQUEST_TIMEOUT"))
	setDuration(&cfg.Server.ShutdownTimeout, env("SERVER_SHUTDOWN_TIMEOUT"))
	if val := env("SERVER_MAX_BODY_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}

	setBool(&cfg.Server.TLS.Enabled, env("SERVER_TLS_ENABLED"))
	setString(&cfg.Server.TLS.CertFile, env("SERVER_TLS_CERT_FILE"))
	setString(&cfg.Server.TLS.KeyFile, env("SERVER_TLS_KEY_FILE"))
	if val := env("SERVER_AUTH_API_KEYS"); val != "" {
		cfg.Server.Auth.APIKeys = splitList(val)
	}

	// Source overrides
	applySourceEnv(&cfg.Sources.Provenance, env, "SOURCES_PROVENANCE_")
	applySourceEnv(&cfg.Sources.Watermark, env, "SOURCES_WATERMARK_")

	// Inspection overrides
	setString(&cfg.Inspection.DefaultModality, env("INSPECTION_DEFAULT_MODALITY"))
	setDuration(&cfg.Inspection.SourceTimeout, env("INSPECTION_SOURCE_TIMEOUT"))

	// Audit overrides
	setString(&cfg.Audit.Backend, env("AUDIT_BACKEND"))
	setString(&cfg.Audit.SQLite.Path, env("AUDIT_SQLITE_PATH"))
	setString(&cfg.Audit.SQLite.Driver, env("AUDIT_SQLITE_DRIVER"))
	setString(&cfg.Audit.Postgres.DSN, env("AUDIT_POSTGRES_DSN"))
	setBool(&cfg.Audit.Cache.Enabled, env("AUDIT_CACHE_ENABLED"))
	setString(&cfg.Audit.Cache.Address, env("AUDIT_CACHE_ADDRESS"))
	setString(&cfg.Audit.Cache.Password, env("AUDIT_CACHE_PASSWORD"))
	setDuration(&cfg.Audit.Cache.TTL, env("AUDIT_CACHE_TTL"))

	// Asset overrides
	setString(&cfg.Assets.Backend, env("ASSETS_BACKEND"))
	setString(&cfg.Assets.S3.Bucket, env("ASSETS_S3_BUCKET"))
	setString(&cfg.Assets.S3.Region, env("ASSETS_S3_REGION"))
	setString(&cfg.Assets.S3.Endpoint, env("ASSETS_S3_ENDPOINT"))
	setString(&cfg.Assets.S3.Prefix, env("ASSETS_S3_PREFIX"))
	setString(&cfg.Assets.S3.AccessKeyID, env("ASSETS_S3_ACCESS_KEY_ID"))
	setString(&cfg.Assets.S3.SecretAccessKey, env("ASSETS_S3_SECRET_ACCESS_KEY"))

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, env("TELEMETRY_LOGGING_LEVEL"))
	setString(&cfg.Telemetry.Logging.Format, env("TELEMETRY_LOGGING_FORMAT"))
	setBool(&cfg.Telemetry.Metrics.Enabled, env("TELEMETRY_METRICS_ENABLED"))
	setString(&cfg.Telemetry.Metrics.Path, env("TELEMETRY_METRICS_PATH"))
	setBool(&cfg.Telemetry.Tracing.Enabled, env("TELEMETRY_TRACING_ENABLED"))
	setString(&cfg.Telemetry.Tracing.Endpoint, env("TELEMETRY_TRACING_ENDPOINT"))
	if val := env("TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	setString(&cfg.Telemetry.Health.ProbeSchedule, env("TELEMETRY_HEALTH_PROBE_SCHEDULE"))
}

// applyLegacyEnv maps the variable names used by existing deployments.
// A database URL selects the postgres audit store and an object bucket
// selects the s3 asset store.
func applyLegacyEnv(cfg *Config, getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		cfg.Server.ListenAddress = ":" + port
	}

	setString(&cfg.Sources.Provenance.BaseURL, getenv("PROVENANCE_URL"))
	setString(&cfg.Sources.Watermark.BaseURL, getenv("SYNTHID_URL"))
	setDetectorURL(cfg, "sensity", getenv("SENSITY_URL"))
	setDetectorURL(cfg, "hive", getenv("HIVE_URL"))
	setDetectorURL(cfg, "reality_defender", getenv("REALITY_DEFENDER_URL"))

	if dsn := getenv("DATABASE_URL"); dsn != "" {
		cfg.Audit.Postgres.DSN = dsn
		cfg.Audit.Backend = AuditBackendPostgres
	}

	if bucket := getenv("OBJECT_BUCKET"); bucket != "" {
		cfg.Assets.S3.Bucket = bucket
		cfg.Assets.Backend = AssetBackendS3
	}
	setString(&cfg.Assets.S3.Region, getenv("OBJECT_REGION"))
	setString(&cfg.Assets.S3.Endpoint, getenv("OBJECT_ENDPOINT"))
	setString(&cfg.Assets.S3.AccessKeyID, getenv("OBJECT_ACCESS_KEY_ID"))
	setString(&cfg.Assets.S3.SecretAccessKey, getenv("OBJECT_SECRET_ACCESS_KEY"))
	setString(&cfg.Assets.S3.Prefix, getenv("OBJECT_PREFIX"))

	setString(&cfg.Inspection.DefaultModality, getenv("DEFAULT_MODALITY"))
}

// applySourceEnv applies overrides under prefix (e.g. SOURCES_PROVENANCE_).
func applySourceEnv(s *SourceConfig, env func(string) string, prefix string) {
	setString(&s.BaseURL, env(prefix+"BASE_URL"))
	setString(&s.APIKey, env(prefix+"API_KEY"))
	setDuration(&s.Timeout, env(prefix+"TIMEOUT"))
	if val := env(prefix + "MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			s.MaxRetries = i
		}
	}
}

// setDetectorURL points the first detector of the given type at url,
// appending a detector when none is configured.
func setDetectorURL(cfg *Config, detectorType, url string) {
	if url == "" {
		return
	}
	for i := range cfg.Sources.Detectors {
		if strings.EqualFold(cfg.Sources.Detectors[i].Type, detectorType) {
			cfg.Sources.Detectors[i].BaseURL = url
			return
		}
	}
	cfg.Sources.Detectors = append(cfg.Sources.Detectors, DetectorConfig{
		Type:         detectorType,
		SourceConfig: SourceConfig{BaseURL: url},
	})
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func setBool(dst *bool, val string) {
	if val == "" {
		return
	}
	if b, err := strconv.ParseBool(val); err == nil {
		*dst = b
	}
}

func setDuration(dst *time.Duration, val string) {
	if val == "" {
		return
	}
	if d, err := time.ParseDuration(val); err == nil {
		*dst = d
	}
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
