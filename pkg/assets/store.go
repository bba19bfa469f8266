// Package assets persists the raw bytes of inspected media.
//
// Storing bytes is independent of evidence gathering: the resulting
// location is attached to the audit record and never feeds the verdict.
package assets

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyAsset is returned when Store is called without bytes.
var ErrEmptyAsset = errors.New("asset has no content")

// Stored describes a persisted asset.
type Stored struct {
	AssetID     string `json:"assetId"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Location    string `json:"location"`
}

// Store persists asset bytes.
type Store interface {
	Store(ctx context.Context, assetID string, data []byte, contentType string) (Stored, error)
}

// StoreError is returned when a blob backend rejects a write.
type StoreError struct {
	Backend string
	AssetID string
	// Code is the service error code reported by the backend, if any
	// (e.g. "AccessDenied", "NoSuchBucket").
	Code  string
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("asset store error [backend=%s, asset=%s, code=%s]: %v", e.Backend, e.AssetID, e.Code, e.Cause)
	}
	return fmt.Sprintf("asset store error [backend=%s, asset=%s]: %v", e.Backend, e.AssetID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}
