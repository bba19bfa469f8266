package assets

import (
	"context"
	"sync"
)

type blob struct {
	data        []byte
	contentType string
}

// MemoryStore keeps asset bytes in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewMemoryStore returns an empty in-memory asset store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]blob)}
}

// Store copies data under assetID and returns a memory:// location.
func (m *MemoryStore) Store(ctx context.Context, assetID string, data []byte, contentType string) (Stored, error) {
	if len(data) == 0 {
		return Stored{}, &StoreError{Backend: "memory", AssetID: assetID, Cause: ErrEmptyAsset}
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.blobs[assetID] = blob{data: buf, contentType: contentType}
	m.mu.Unlock()

	return Stored{
		AssetID:     assetID,
		ContentType: contentType,
		Size:        int64(len(data)),
		Location:    "memory://" + assetID,
	}, nil
}

// Get returns a copy of the bytes stored for assetID.
func (m *MemoryStore) Get(assetID string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[assetID]
	if !ok {
		return nil, "", false
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, b.contentType, true
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
