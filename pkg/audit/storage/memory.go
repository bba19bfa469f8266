package storage

import (
	"context"
	"sync"

	"mediatrust-hq/orchestrator/pkg/audit"
)

// MemoryStorage implements audit.Store using an in-memory map.
// Contents are lost on restart; use it for tests and local development.
type MemoryStorage struct {
	records map[string]*audit.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory audit store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*audit.Record),
	}
}

// Save inserts or replaces the record for rec.AssetID.
func (s *MemoryStorage) Save(ctx context.Context, rec *audit.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later mutation by the caller cannot change stored state.
	s.records[rec.AssetID] = rec.Clone()

	return nil
}

// Find returns a copy of the record for assetID.
func (s *MemoryStorage) Find(ctx context.Context, assetID string) (*audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[assetID]
	if !ok {
		return nil, audit.ErrNotFound
	}
	return rec.Clone(), nil
}

// Count returns the number of stored records.
func (s *MemoryStorage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for in-memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}
