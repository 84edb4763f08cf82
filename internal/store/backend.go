package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend is the persisted slot the record store mirrors into: a key-value
// surface with get/set/clear over a string key. Set must replace the slot's
// content atomically so an interrupted write leaves the previous state
// intact.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Clear(key string) error
}

// FileBackend stores each slot as a file <dir>/<key>.json. Writes go to a
// temp file in the same directory followed by a rename, so the slot is
// replaced atomically.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the slot directory if needed and returns a backend
// rooted at it.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// Get reads the slot content. Returns ok=false when the slot has never been
// written.
func (b *FileBackend) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the slot content atomically via temp file and rename.
func (b *FileBackend) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close slot %s: %w", key, err)
	}
	if err := os.Rename(tmpName, b.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace slot %s: %w", key, err)
	}
	return nil
}

// Clear removes the slot. Clearing an absent slot is not an error.
func (b *FileBackend) Clear(key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear slot %s: %w", key, err)
	}
	return nil
}

// MemoryBackend is an in-memory Backend for tests and ephemeral use.
type MemoryBackend struct {
	mu    sync.Mutex
	slots map[string][]byte

	// SetErr, when non-nil, is returned by every Set. Lets tests simulate
	// quota-exhausted slots.
	SetErr error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{slots: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.slots[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

func (b *MemoryBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SetErr != nil {
		return b.SetErr
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b.slots[key] = cp
	return nil
}

func (b *MemoryBackend) Clear(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.slots, key)
	return nil
}
