package audit

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Find when no record exists for an asset id.
	ErrNotFound = errors.New("audit record not found")

	// ErrInvalidRecord is returned by Save for records missing an asset id
	// or carrying an unknown verdict.
	ErrInvalidRecord = errors.New("invalid audit record")
)

// Store persists inspection outcomes.
//
// Implementations must be safe for concurrent use. Save is an upsert keyed by
// AssetID with last-write-wins semantics; concurrent saves for the same id
// may land in either order.
type Store interface {
	// Save inserts or replaces the record for rec.AssetID.
	Save(ctx context.Context, rec *Record) error

	// Find returns the record for assetID, or ErrNotFound.
	Find(ctx context.Context, assetID string) (*Record, error)

	// Close releases backend resources.
	Close() error
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
