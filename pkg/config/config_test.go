package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Server.MaxBodyBytes != 32<<20 {
		t.Errorf("MaxBodyBytes = %d, want 32MiB", cfg.Server.MaxBodyBytes)
	}
	if cfg.Audit.Backend != "memory" || cfg.Assets.Backend != "memory" {
		t.Errorf("backends = %q/%q, want memory/memory", cfg.Audit.Backend, cfg.Assets.Backend)
	}
	if !cfg.Audit.SQLite.WALMode || !cfg.Telemetry.Metrics.Enabled || !cfg.Telemetry.Logging.Redact {
		t.Error("boolean defaults not applied")
	}
	if cfg.Inspection.DefaultModality != "image" {
		t.Errorf("DefaultModality = %q, want image", cfg.Inspection.DefaultModality)
	}
	if cfg.Sources.Provenance.Configured() {
		t.Error("provenance should not be configured by default")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9090"
  request_timeout: 20s
sources:
  provenance:
    base_url: http://provenance:9000
  watermark:
    base_url: http://synthid:9001
    api_key: secret
  detectors:
    - type: sensity
      base_url: http://sensity:9002
    - type: hive
      name: hive-video
      base_url: http://hive:9003
      max_retries: -1
audit:
  backend: sqlite
  sqlite:
    path: /tmp/audit.db
    wal_mode: false
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.RequestTimeout != 20*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout default not applied: %v", cfg.Server.ReadTimeout)
	}

	if cfg.Sources.Provenance.Name != "provenance" || cfg.Sources.Watermark.Name != "synthid" {
		t.Errorf("source names = %q/%q", cfg.Sources.Provenance.Name, cfg.Sources.Watermark.Name)
	}
	if cfg.Sources.Watermark.APIKeyHeader != "Authorization" {
		t.Errorf("APIKeyHeader = %q, want Authorization", cfg.Sources.Watermark.APIKeyHeader)
	}
	if len(cfg.Sources.Detectors) != 2 {
		t.Fatalf("got %d detectors, want 2", len(cfg.Sources.Detectors))
	}
	if cfg.Sources.Detectors[0].Name != "sensity" || cfg.Sources.Detectors[0].MaxRetries != DefaultSourceMaxRetries {
		t.Errorf("detector[0] = %+v", cfg.Sources.Detectors[0])
	}
	if cfg.Sources.Detectors[1].Name != "hive-video" || cfg.Sources.Detectors[1].MaxRetries != -1 {
		t.Errorf("detector[1] = %+v", cfg.Sources.Detectors[1])
	}

	if cfg.Audit.SQLite.WALMode {
		t.Error("explicit wal_mode: false was overwritten")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("explicit metrics.enabled: false was overwritten")
	}
	if !cfg.Telemetry.Logging.Redact {
		t.Error("unset redact should keep its default")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := LoadConfig(writeConfig(t, "server: [oops")); err == nil {
		t.Error("expected error for malformed YAML")
	}

	_, err := LoadConfig(writeConfig(t, "audit:\n  backend: mongo\n"))
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Errors[0].Field != "audit.backend" {
		t.Errorf("Field = %q, want audit.backend", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides_EmptyPath(t *testing.T) {
	t.Setenv("ORCHESTRATOR_SERVER_LISTEN_ADDRESS", ":7070")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}
	if cfg.Server.ListenAddress != ":7070" {
		t.Errorf("ListenAddress = %q, want :7070", cfg.Server.ListenAddress)
	}
}

func TestApplyEnvOverrides_Legacy(t *testing.T) {
	cfg := base()
	applyEnvOverrides(cfg, envMap(map[string]string{
		"PORT":                     "3000",
		"PROVENANCE_URL":           "http://prov",
		"SYNTHID_URL":              "http://synthid",
		"SENSITY_URL":              "http://sensity",
		"HIVE_URL":                 "http://hive",
		"REALITY_DEFENDER_URL":     "http://rd",
		"DATABASE_URL":             "postgres://u:p@db/audit",
		"OBJECT_BUCKET":            "assets",
		"OBJECT_REGION":            "eu-west-1",
		"OBJECT_ENDPOINT":          "http://minio:9000",
		"OBJECT_ACCESS_KEY_ID":     "AKIA",
		"OBJECT_SECRET_ACCESS_KEY": "shh",
		"OBJECT_PREFIX":            "uploads/",
		"DEFAULT_MODALITY":         "video",
	}))
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Server.ListenAddress != ":3000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Sources.Provenance.BaseURL != "http://prov" || cfg.Sources.Watermark.BaseURL != "http://synthid" {
		t.Errorf("sources = %+v", cfg.Sources)
	}

	var types []string
	for _, d := range cfg.Sources.Detectors {
		types = append(types, d.Type)
	}
	if strings.Join(types, ",") != "sensity,hive,reality_defender" {
		t.Errorf("detector order = %v", types)
	}

	if cfg.Audit.Backend != "postgres" || cfg.Audit.Postgres.DSN != "postgres://u:p@db/audit" {
		t.Errorf("audit = %s %q", cfg.Audit.Backend, cfg.Audit.Postgres.DSN)
	}
	if cfg.Assets.Backend != "s3" || cfg.Assets.S3.Bucket != "assets" || cfg.Assets.S3.Region != "eu-west-1" {
		t.Errorf("assets = %+v", cfg.Assets)
	}
	if !cfg.Assets.S3.UsePathStyle {
		t.Error("custom endpoint should force path-style addressing")
	}
	if cfg.Inspection.DefaultModality != "video" {
		t.Errorf("DefaultModality = %q", cfg.Inspection.DefaultModality)
	}
}

func TestApplyEnvOverrides_PrefixedWins(t *testing.T) {
	cfg := base()
	cfg.Sources.Detectors = []DetectorConfig{{Type: "hive", SourceConfig: SourceConfig{BaseURL: "http://from-file"}}}

	applyEnvOverrides(cfg, envMap(map[string]string{
		"PORT":                                   "3000",
		"ORCHESTRATOR_SERVER_LISTEN_ADDRESS":     "0.0.0.0:4000",
		"HIVE_URL":                               "http://hive-env",
		"ORCHESTRATOR_TELEMETRY_METRICS_ENABLED": "false",
		"ORCHESTRATOR_AUDIT_CACHE_TTL":           "not-a-duration",
	}))

	if cfg.Server.ListenAddress != "0.0.0.0:4000" {
		t.Errorf("ListenAddress = %q, prefixed variable should win", cfg.Server.ListenAddress)
	}
	if len(cfg.Sources.Detectors) != 1 || cfg.Sources.Detectors[0].BaseURL != "http://hive-env" {
		t.Errorf("existing hive detector should be updated in place: %+v", cfg.Sources.Detectors)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics should be disabled by env")
	}
	if cfg.Audit.Cache.TTL != 0 {
		t.Errorf("invalid duration should be ignored, got %v", cfg.Audit.Cache.TTL)
	}
}

func TestApplyEnvOverrides_ServerAuth(t *testing.T) {
	cfg := base()

	applyEnvOverrides(cfg, envMap(map[string]string{
		"ORCHESTRATOR_SERVER_AUTH_API_KEYS": " k1, ,k2 ",
		"ORCHESTRATOR_SERVER_TLS_ENABLED":   "true",
		"ORCHESTRATOR_SERVER_TLS_CERT_FILE": "/etc/tls/tls.crt",
	}))

	if len(cfg.Server.Auth.APIKeys) != 2 || cfg.Server.Auth.APIKeys[0] != "k1" || cfg.Server.Auth.APIKeys[1] != "k2" {
		t.Errorf("APIKeys = %q, want [k1 k2]", cfg.Server.Auth.APIKeys)
	}
	if !cfg.Server.TLS.Enabled || cfg.Server.TLS.CertFile != "/etc/tls/tls.crt" {
		t.Errorf("TLS = %+v", cfg.Server.TLS)
	}
}

func TestApplyDefaults_BackendSelection(t *testing.T) {
	cfg := base()
	cfg.Audit.Postgres.DSN = "postgres://db/audit"
	cfg.Assets.S3.Bucket = "bucket"
	ApplyDefaults(cfg)

	if cfg.Audit.Backend != "postgres" {
		t.Errorf("audit backend = %q, want postgres when a DSN is set", cfg.Audit.Backend)
	}
	if cfg.Assets.Backend != "s3" {
		t.Errorf("asset backend = %q, want s3 when a bucket is set", cfg.Assets.Backend)
	}

	explicit := base()
	explicit.Audit.Backend = "sqlite"
	explicit.Audit.Postgres.DSN = "postgres://db/audit"
	ApplyDefaults(explicit)
	if explicit.Audit.Backend != "sqlite" {
		t.Errorf("explicit backend overwritten: %q", explicit.Audit.Backend)
	}
}
