package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mediatrust-hq/orchestrator/pkg/assets"
	"mediatrust-hq/orchestrator/pkg/audit"
	"mediatrust-hq/orchestrator/pkg/audit/storage"
	"mediatrust-hq/orchestrator/pkg/config"
	"mediatrust-hq/orchestrator/pkg/evidence"
	"mediatrust-hq/orchestrator/pkg/inspection"
	"mediatrust-hq/orchestrator/pkg/providers"
	"mediatrust-hq/orchestrator/pkg/telemetry/health"
	"mediatrust-hq/orchestrator/pkg/telemetry/metrics"
	"mediatrust-hq/orchestrator/pkg/telemetry/tracing"
)

// sourceCheckPrefix prefixes readiness checks of evidence backends.
const sourceCheckPrefix = "source:"

// app holds every long-lived component of a running orchestrator.
type app struct {
	cfg       *config.Config
	collector *metrics.Collector
	tracer    *tracing.Tracer
	audit     audit.Store
	assets    assets.Store
	sources   *providers.Set
	service   *inspection.Service
	checker   *health.Checker

	closers []func() error
}

// newApp wires the orchestrator from cfg. On error every component built
// so far is closed.
func newApp(cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.closers = append(a.closers, func() error { return a.tracer.Shutdown(context.Background()) })

	a.audit, err = openAuditStore(&cfg.Audit)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.audit.Close)

	a.assets, err = openAssetStore(&cfg.Assets)
	if err != nil {
		return nil, err
	}

	a.sources, err = providers.NewSet(sourcesConfig(&cfg.Sources))
	if err != nil {
		return nil, fmt.Errorf("failed to create evidence sources: %w", err)
	}
	a.closers = append(a.closers, a.sources.Close)

	for _, b := range a.sources.Backends() {
		name := b.Name()
		b.Breaker().OnStateChange(func(from, to providers.BreakerState) {
			slog.Warn("circuit breaker state changed", "source", name, "from", from.String(), "to", to.String())
			a.collector.SetBreakerState(name, to.String())
		})
	}

	coordinator := evidence.NewCoordinator(
		a.sources.Sources(
			evidence.WithDetectorTimeout(cfg.Inspection.SourceTimeout),
			evidence.WithDetectorObserver(a.collector),
		),
		evidence.WithTimeout(cfg.Inspection.SourceTimeout),
		evidence.WithObserver(a.collector),
		evidence.WithTracer(a.tracer.Tracer()),
	)

	modality, err := evidence.ParseModality(cfg.Inspection.DefaultModality)
	if err != nil {
		return nil, fmt.Errorf("invalid default modality: %w", err)
	}

	opts := []inspection.Option{
		inspection.WithDefaultModality(modality),
		inspection.WithRecorder(a.collector),
		inspection.WithTracer(a.tracer.Tracer()),
	}
	if a.assets != nil {
		opts = append(opts, inspection.WithAssetStore(a.assets))
	}
	a.service = inspection.NewService(coordinator, a.audit, opts...)

	a.checker = a.newChecker()

	return a, nil
}

// newChecker registers a readiness check for every backend the service
// depends on, and mirrors evidence source results into the source_health
// gauge.
func (a *app) newChecker() *health.Checker {
	checker := health.New(a.cfg.Telemetry.Health.CheckTimeout)

	if p, ok := a.audit.(audit.Pinger); ok {
		checker.RegisterCheck("audit", health.PingCheck(p))
	}
	if p, ok := a.assets.(health.Pinger); ok {
		checker.RegisterCheck("assets", health.PingCheck(p))
	}
	for _, b := range a.sources.Backends() {
		checker.RegisterCheck(sourceCheckPrefix+b.Name(), b.HealthCheck)
	}

	checker.OnResult(func(name string, result health.CheckResult) {
		if source, ok := strings.CutPrefix(name, sourceCheckPrefix); ok {
			a.collector.UpdateSourceHealth(source, result.Healthy())
		}
	})

	return checker
}

// Close releases components in reverse construction order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openAuditStore opens the configured audit backend, wrapped in the Redis
// cache when enabled.
func openAuditStore(cfg *config.AuditConfig) (audit.Store, error) {
	var (
		store audit.Store
		err   error
	)

	switch cfg.Backend {
	case config.AuditBackendMemory:
		store = storage.NewMemoryStorage()
	case config.AuditBackendSQLite:
		store, err = storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	case config.AuditBackendPostgres:
		store, err = storage.NewPostgresStorage(storage.PostgresConfig{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
		})
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s audit store: %w", cfg.Backend, err)
	}

	if cfg.Cache.Enabled {
		client := storage.NewRedisClient(storage.RedisConfig{
			Address:  cfg.Cache.Address,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		store = storage.NewCachedStore(store, client, cfg.Cache.TTL, cfg.Cache.KeyPrefix)
	}

	slog.Info("audit store opened", "backend", cfg.Backend, "cache", cfg.Cache.Enabled)
	return store, nil
}

// openAssetStore returns nil when asset storage is disabled.
func openAssetStore(cfg *config.AssetsConfig) (assets.Store, error) {
	switch cfg.Backend {
	case config.AssetBackendNone:
		return nil, nil
	case config.AssetBackendMemory:
		return assets.NewMemoryStore(), nil
	case config.AssetBackendS3:
		s3cfg := assets.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
			UsePathStyle:    cfg.S3.UsePathStyle,
		}
		store, err := assets.NewS3Store(assets.NewS3Client(s3cfg), s3cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 asset store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported asset backend: %s", cfg.Backend)
	}
}

// sourcesConfig maps configuration onto evidence client settings.
func sourcesConfig(cfg *config.SourcesConfig) providers.SourcesConfig {
	out := providers.SourcesConfig{
		Provenance: clientConfig(cfg.Provenance),
		Watermark:  clientConfig(cfg.Watermark),
	}
	for _, d := range cfg.Detectors {
		out.Detectors = append(out.Detectors, providers.DetectorConfig{
			Type:         d.Type,
			ClientConfig: clientConfig(d.SourceConfig),
		})
	}
	return out
}

func clientConfig(s config.SourceConfig) providers.ClientConfig {
	return providers.ClientConfig{
		Name:             s.Name,
		BaseURL:          s.BaseURL,
		APIKey:           s.APIKey,
		APIKeyHeader:     s.APIKeyHeader,
		Timeout:          s.Timeout,
		MaxRetries:       s.MaxRetries,
		Backoff:          s.Backoff,
		FailureThreshold: s.FailureThreshold,
		RecoveryTimeout:  s.RecoveryTimeout,
		RateLimit:        s.RateLimit,
	}
}
