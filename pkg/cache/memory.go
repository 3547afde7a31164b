package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Load returns the entry for key unless it is missing or expired.
func (b *MemoryBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	entry, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if entry.expired(b.now()) {
		b.dropExpired(key)
		return nil, false, nil
	}

	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return data, true, nil
}

// dropExpired deletes key only if the entry under it is still expired, so
// a Store racing with Load is not lost.
func (b *MemoryBackend) dropExpired(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.entries[key]; ok && entry.expired(b.now()) {
		delete(b.entries, key)
	}
}

// Store saves data under key. A non-positive ttl never expires.
func (b *MemoryBackend) Store(_ context.Context, key string, data []byte, ttl time.Duration) error {
	entry := memoryEntry{data: make([]byte, len(data))}
	copy(entry.data, data)
	if ttl > 0 {
		entry.expiresAt = b.now().Add(ttl)
	}

	b.mu.Lock()
	b.entries[key] = entry
	b.mu.Unlock()
	return nil
}

// Delete removes key.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.entries, key)
	b.mu.Unlock()
	return nil
}
