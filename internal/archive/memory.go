package archive

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"songs-history/internal/changelog"
)

// MemoryArchive is an in-memory implementation of changelog.Archive.
// Useful for testing. Safe for concurrent use.
type MemoryArchive struct {
	name    string
	objects map[string][]byte
	mu      sync.RWMutex
}

var _ changelog.Archive = (*MemoryArchive)(nil)

// NewMemoryArchive creates a new in-memory archive with the given name.
func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{
		name:    name,
		objects: make(map[string][]byte),
	}
}

// Put stores an object, replacing any previous one under key.
func (m *MemoryArchive) Put(key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = data
	return nil
}

// Get writes the object stored under key to w.
func (m *MemoryArchive) Get(key string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, changelog.ErrRunNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// Keys returns the stored keys in lexical order.
func (m *MemoryArchive) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Name returns the configured archive name.
func (m *MemoryArchive) Name() string {
	return m.name
}

// ValidateSetup always succeeds for an in-memory archive.
func (m *MemoryArchive) ValidateSetup() error {
	return nil
}
