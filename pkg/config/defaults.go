package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = ":8080"
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 45 * time.Second
	DefaultMaxHeaderBytes  = 1048576  // 1MB
	DefaultMaxBodyBytes    = 32 << 20 // 32MiB
	DefaultCORSMaxAge      = 3600
	DefaultTLSMinVersion   = "1.2"
	DefaultTLSClientAuth   = "require"
	DefaultAPIKeyHeader    = "X-API-Key"
	DefaultTLSReload       = 5 * time.Minute

	// Source defaults
	DefaultSourceTimeout          = 10 * time.Second
	DefaultSourceMaxRetries       = 2
	DefaultSourceBackoff          = 250 * time.Millisecond
	DefaultSourceFailureThreshold = 3
	DefaultSourceRecoveryTimeout  = 30 * time.Second
	DefaultSourceAPIKeyHeader     = "Authorization"

	// Inspection defaults
	DefaultModality = "image"

	// Audit defaults
	DefaultAuditBackend         = AuditBackendMemory
	DefaultSQLitePath           = "data/audit.db"
	DefaultSQLiteDriver         = "sqlite"
	DefaultSQLiteMaxOpenConns   = 10
	DefaultSQLiteMaxIdleConns   = 5
	DefaultSQLiteBusyTimeout    = 5 * time.Second
	DefaultPostgresMaxOpenConns = 10
	DefaultPostgresMaxIdleConns = 5
	DefaultPostgresConnMaxLife  = 30 * time.Minute
	DefaultPostgresConnMaxIdle  = 5 * time.Minute
	DefaultCacheAddress         = "localhost:6379"
	DefaultCacheTTL             = 10 * time.Minute
	DefaultCacheKeyPrefix       = "inspection:"

	// Asset defaults
	DefaultAssetsBackend = AssetBackendMemory
	DefaultS3Region      = "us-east-1"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "mediatrust"
	DefaultMetricsSubsystem   = "orchestrator"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "mediatrust-orchestrator"
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultProbeSchedule      = "@every 30s"
)

// DefaultDurationBuckets are the latency histogram buckets in seconds.
var DefaultDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := base()
	ApplyDefaults(cfg)
	return cfg
}

// base returns a configuration holding only the boolean defaults. YAML is
// decoded on top of it, so settings that default to true keep their value
// unless the file sets them.
func base() *Config {
	cfg := &Config{}
	cfg.Audit.SQLite.WALMode = true
	cfg.Telemetry.Logging.Redact = true
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Tracing.Insecure = true
	return cfg
}

// ApplyDefaults applies default values to any unset (zero-value) fields.
// It does not touch boolean fields; see Default.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	applyCORSDefaults(&cfg.Server.CORS)
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReload
	}
	if cfg.Server.TLS.ClientAuth == "" {
		cfg.Server.TLS.ClientAuth = DefaultTLSClientAuth
	}
	if cfg.Server.Auth.Header == "" {
		cfg.Server.Auth.Header = DefaultAPIKeyHeader
	}

	// Source defaults
	applySourceDefaults(&cfg.Sources.Provenance, "provenance")
	applySourceDefaults(&cfg.Sources.Watermark, "synthid")
	for i := range cfg.Sources.Detectors {
		d := &cfg.Sources.Detectors[i]
		applySourceDefaults(&d.SourceConfig, d.Type)
	}

	// Inspection defaults
	if cfg.Inspection.DefaultModality == "" {
		cfg.Inspection.DefaultModality = DefaultModality
	}
	if cfg.Inspection.SourceTimeout == 0 {
		cfg.Inspection.SourceTimeout = DefaultSourceTimeout
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
		if cfg.Audit.Postgres.DSN != "" {
			cfg.Audit.Backend = AuditBackendPostgres
		}
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Audit.SQLite.Driver == "" {
		cfg.Audit.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Audit.Postgres.MaxOpenConns == 0 {
		cfg.Audit.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if cfg.Audit.Postgres.MaxIdleConns == 0 {
		cfg.Audit.Postgres.MaxIdleConns = DefaultPostgresMaxIdleConns
	}
	if cfg.Audit.Postgres.ConnMaxLifetime == 0 {
		cfg.Audit.Postgres.ConnMaxLifetime = DefaultPostgresConnMaxLife
	}
	if cfg.Audit.Postgres.ConnMaxIdleTime == 0 {
		cfg.Audit.Postgres.ConnMaxIdleTime = DefaultPostgresConnMaxIdle
	}
	if cfg.Audit.Cache.Address == "" {
		cfg.Audit.Cache.Address = DefaultCacheAddress
	}
	if cfg.Audit.Cache.TTL == 0 {
		cfg.Audit.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Audit.Cache.KeyPrefix == "" {
		cfg.Audit.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}

	// Asset defaults
	if cfg.Assets.Backend == "" {
		cfg.Assets.Backend = DefaultAssetsBackend
		if cfg.Assets.S3.Bucket != "" {
			cfg.Assets.Backend = AssetBackendS3
		}
	}
	if cfg.Assets.S3.Region == "" {
		cfg.Assets.S3.Region = DefaultS3Region
	}
	if cfg.Assets.S3.Endpoint != "" {
		cfg.Assets.S3.UsePathStyle = true
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Telemetry.Health.ProbeSchedule == "" {
		cfg.Telemetry.Health.ProbeSchedule = DefaultProbeSchedule
	}
}

// applyCORSDefaults fills CORS lists only when CORS is enabled.
func applyCORSDefaults(cfg *CORSConfig) {
	if !cfg.Enabled {
		return
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Content-Type", "X-Request-ID", "Authorization", DefaultAPIKeyHeader}
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = DefaultCORSMaxAge
	}
}

// applySourceDefaults fills an evidence source. Negative MaxRetries and
// FailureThreshold are kept; they disable retries and the breaker.
func applySourceDefaults(s *SourceConfig, name string) {
	if s.Name == "" {
		s.Name = name
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultSourceTimeout
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = DefaultSourceMaxRetries
	}
	if s.Backoff == 0 {
		s.Backoff = DefaultSourceBackoff
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = DefaultSourceFailureThreshold
	}
	if s.RecoveryTimeout == 0 {
		s.RecoveryTimeout = DefaultSourceRecoveryTimeout
	}
	if s.APIKey != "" && s.APIKeyHeader == "" {
		s.APIKeyHeader = DefaultSourceAPIKeyHeader
	}
}
