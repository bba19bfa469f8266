// Package config provides configuration management for the orchestrator.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file (optional) with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//     cfg, err := config.LoadConfigWithEnvOverrides("") // defaults + env
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention ORCHESTRATOR_SECTION_FIELD:
//
//   - ORCHESTRATOR_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - ORCHESTRATOR_SOURCES_PROVENANCE_BASE_URL overrides sources.provenance.base_url
//   - ORCHESTRATOR_AUDIT_POSTGRES_DSN overrides audit.postgres.dsn
//
// The variable names of existing deployments are honoured as well: PORT,
// PROVENANCE_URL, SYNTHID_URL, SENSITY_URL, HIVE_URL, REALITY_DEFENDER_URL,
// DATABASE_URL, OBJECT_BUCKET, OBJECT_REGION, OBJECT_ENDPOINT,
// OBJECT_ACCESS_KEY_ID, OBJECT_SECRET_ACCESS_KEY, OBJECT_PREFIX and
// DEFAULT_MODALITY. DATABASE_URL selects the postgres audit store and
// OBJECT_BUCKET selects the s3 asset store.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Deployment environment variables
//  4. ORCHESTRATOR_* environment variables
//  5. Validation (fails fast if invalid)
//
// # Singleton and Hot Reload
//
//	if err := config.Initialize(path); err != nil {
//	    log.Fatal(err)
//	}
//	config.OnReload(func(cfg *config.Config) { logger.SetLevel(cfg.Telemetry.Logging.Level) })
//	go config.NewWatcher(path, 0).Watch(ctx)
//
// A reload that fails validation is logged and the previous configuration
// stays in effect.
package config
