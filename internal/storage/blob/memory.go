package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	vaultSvc "filevault/internal/domain/services/vault"
)

// MemoryStore keeps blobs in memory. Useful for tests and local runs.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	blobs map[string][]byte // location -> content
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory blob store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Write stores the content under key
func (m *MemoryStore) Write(ctx context.Context, key string, r io.ReadSeeker) (vaultSvc.BlobInfo, error) {
	if err := validateKey(key); err != nil {
		return vaultSvc.BlobInfo{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("read content: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data

	return vaultSvc.BlobInfo{Location: key, Size: int64(len(data))}, nil
}

// Read opens the blob at location
func (m *MemoryStore) Read(ctx context.Context, location string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[location]
	if !ok {
		return nil, fmt.Errorf("%s: %w", location, vaultSvc.ErrBlobNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Remove drops a blob. Tests use it to simulate lost storage.
func (m *MemoryStore) Remove(location string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, location)
}

// Len returns the number of stored blobs
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// Locations lists every stored blob location
func (m *MemoryStore) Locations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	locs := make([]string, 0, len(m.blobs))
	for loc := range m.blobs {
		locs = append(locs, loc)
	}
	return locs
}

// ValidateSetup always succeeds for the in-memory store
func (m *MemoryStore) ValidateSetup(ctx context.Context) error {
	return nil
}

var _ vaultSvc.BlobStore = (*MemoryStore)(nil)
