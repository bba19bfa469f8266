package storage

// SchemaVersion is the current audit database schema version.
const SchemaVersion = 1

// SQLiteSchema creates the audit tables. Every statement is idempotent.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS inspections (
    asset_id TEXT PRIMARY KEY,
    verdict TEXT NOT NULL,
    confidence REAL NOT NULL,
    evidence TEXT NOT NULL,
    metadata TEXT,
    stored_at TEXT NOT NULL,
    storage_location TEXT
);

CREATE INDEX IF NOT EXISTS idx_inspections_stored_at ON inspections(stored_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records that a schema version has been applied.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`

const sqliteUpsert = `
INSERT INTO inspections (
    asset_id, verdict, confidence, evidence, metadata, stored_at, storage_location
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(asset_id) DO UPDATE SET
    verdict = excluded.verdict,
    confidence = excluded.confidence,
    evidence = excluded.evidence,
    metadata = excluded.metadata,
    stored_at = excluded.stored_at,
    storage_location = excluded.storage_location
`

const sqliteSelect = `
SELECT asset_id, verdict, confidence, evidence, metadata, stored_at, storage_location
FROM inspections
WHERE asset_id = ?
`
