package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mediatrust-hq/orchestrator/pkg/audit"
	"mediatrust-hq/orchestrator/pkg/policy"
)

// SQLite driver names registered by the imported drivers.
const (
	// DriverModernc is the pure-Go driver (modernc.org/sqlite).
	DriverModernc = "sqlite"

	// DriverMattn is the cgo driver (github.com/mattn/go-sqlite3).
	DriverMattn = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite" or "sqlite3".
	// Default: "sqlite"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		Driver:       DriverModernc,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements audit.Store using SQLite.
// The schema is created on first use.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	initMu      sync.Mutex
	initialized bool
}

// NewSQLiteStorage opens (or creates) a SQLite audit database.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverModernc
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	dsn, err := sqliteDSN(config)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	logger.Info("SQLite audit storage opened",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

// sqliteDSN builds a connection string carrying the per-connection pragmas
// in the syntax of the selected driver.
func sqliteDSN(config *SQLiteConfig) (string, error) {
	busy := config.BusyTimeout.Milliseconds()
	q := url.Values{}

	switch config.Driver {
	case DriverModernc:
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		if config.WALMode {
			q.Add("_pragma", "journal_mode(WAL)")
		}
	case DriverMattn:
		q.Set("_busy_timeout", fmt.Sprintf("%d", busy))
		if config.WALMode {
			q.Set("_journal_mode", "WAL")
		}
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", config.Driver)
	}

	return "file:" + config.Path + "?" + q.Encode(), nil
}

// migrate creates the schema once. A failed attempt is retried on the next call.
func (s *SQLiteStorage) migrate(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, SQLiteSchema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.ExecContext(ctx, InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version); err != nil {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	s.initialized = true
	s.logger.Debug("schema ready", "version", version.Int64)
	return nil
}

// Save upserts rec in a single statement.
func (s *SQLiteStorage) Save(ctx context.Context, rec *audit.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.migrate(ctx); err != nil {
		return err
	}

	evidenceJSON, err := audit.EncodeEvidence(rec.Evidence)
	if err != nil {
		return audit.NewStorageError("sqlite", "save", err)
	}
	metadataJSON, err := audit.EncodeMetadata(rec.Metadata)
	if err != nil {
		return audit.NewStorageError("sqlite", "save", err)
	}

	var metadataVal, locationVal any
	if metadataJSON != nil {
		metadataVal = string(metadataJSON)
	}
	if rec.StorageLocation != "" {
		locationVal = rec.StorageLocation
	}

	_, err = s.db.ExecContext(ctx, sqliteUpsert,
		rec.AssetID,
		string(rec.Verdict),
		rec.Confidence,
		string(evidenceJSON),
		metadataVal,
		rec.StoredAt.UTC().Format(time.RFC3339Nano),
		locationVal,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "save", err)
	}

	return nil
}

// Find loads the record for assetID.
func (s *SQLiteStorage) Find(ctx context.Context, assetID string) (*audit.Record, error) {
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}

	var (
		rec          audit.Record
		verdict      string
		evidenceJSON string
		metadataJSON sql.NullString
		storedAt     string
		location     sql.NullString
	)

	err := s.db.QueryRowContext(ctx, sqliteSelect, assetID).Scan(
		&rec.AssetID, &verdict, &rec.Confidence, &evidenceJSON, &metadataJSON, &storedAt, &location,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, audit.ErrNotFound
	}
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "find", err)
	}

	if rec.Verdict, err = policy.ParseKind(verdict); err != nil {
		return nil, audit.NewStorageError("sqlite", "find", err)
	}
	if rec.Evidence, err = audit.DecodeEvidence([]byte(evidenceJSON)); err != nil {
		return nil, audit.NewStorageError("sqlite", "find", err)
	}
	if metadataJSON.Valid {
		if rec.Metadata, err = audit.DecodeMetadata([]byte(metadataJSON.String)); err != nil {
			return nil, audit.NewStorageError("sqlite", "find", err)
		}
	}
	if rec.StoredAt, err = time.Parse(time.RFC3339Nano, storedAt); err != nil {
		return nil, audit.NewStorageError("sqlite", "find", err)
	}
	rec.StorageLocation = location.String

	return &rec, nil
}

// Ping verifies the database is reachable and the schema exists.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return audit.NewStorageError("sqlite", "ping", err)
	}
	return s.migrate(ctx)
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite audit storage closed")
	return nil
}
