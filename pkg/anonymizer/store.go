// pkg/anonymizer/store.go
package anonymizer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a handle has no stored content.
var ErrNotFound = errors.New("content not found for handle")

// ContentEntry is the stored original text plus its capture timestamp.
type ContentEntry struct {
	Content    string
	CapturedAt time.Time
}

// ContentStore is the injectable key-value abstraction backing the
// re-identification cache. Handles are content-derived digests, so
// concurrent writes to the same handle carry the same value and Put follows
// insert-or-ignore semantics. Implementations must be safe for concurrent
// use; eviction and TTL policy belong to the host process, which can swap
// in a bounded store or call Purge.
type ContentStore interface {
	Put(ctx context.Context, handle string, entry ContentEntry) error
	Get(ctx context.Context, handle string) (ContentEntry, error)
	Delete(ctx context.Context, handle string) error
	Purge(ctx context.Context) error
}

// Ensure MemoryStore implements the interface.
var _ ContentStore = (*MemoryStore)(nil)

// MemoryStore is the default in-process ContentStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]ContentEntry
}

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]ContentEntry),
	}
}

// Put stores the entry under the handle unless one already exists.
func (s *MemoryStore) Put(_ context.Context, handle string, entry ContentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[handle]; ok {
		return nil
	}
	s.entries[handle] = entry
	return nil
}

// Get retrieves the entry stored under the handle.
func (s *MemoryStore) Get(_ context.Context, handle string) (ContentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[handle]
	if !ok {
		return ContentEntry{}, ErrNotFound
	}
	return entry, nil
}

// Delete removes the entry stored under the handle, if any.
func (s *MemoryStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, handle)
	return nil
}

// Purge drops every stored entry.
func (s *MemoryStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]ContentEntry)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
