package storage

import (
	"context"
	"path"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process AssetStore for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns an empty in-memory asset store.
func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

var _ AssetStore = (*MemoryStore)(nil)

func (m *MemoryStore) Upload(_ context.Context, data []byte, _ string) (Asset, error) {
	_, ext, err := DetectImageType(data)
	if err != nil {
		return Asset{}, err
	}
	handle := path.Join(CoverPrefix, uuid.NewString()+ext)

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[handle] = buf
	m.mu.Unlock()

	return Asset{URL: "memory://" + handle, Handle: handle}, nil
}

func (m *MemoryStore) Remove(_ context.Context, handle string) error {
	m.mu.Lock()
	delete(m.objects, handle)
	m.mu.Unlock()
	return nil
}

// Has reports whether an asset with the given handle is stored.
func (m *MemoryStore) Has(handle string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[handle]
	return ok
}

// Len returns the number of stored assets.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
