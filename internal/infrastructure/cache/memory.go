package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process key-value store with expiration. It backs the
// meeting lock and the realtime debounce when Redis is disabled.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	stop  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

func (i *memoryItem) expired(now time.Time) bool {
	return now.After(i.expireTime)
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]*memoryItem),
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired(5 * time.Minute)

	return store
}

// SetNX stores value only when key is absent or expired
func (ms *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	if item, exists := ms.items[key]; exists && !item.expired(now) {
		return false, nil
	}

	ms.items[key] = &memoryItem{
		value:      value,
		expireTime: now.Add(ttl),
	}
	return true, nil
}

// DeleteIfEquals removes key only while it still holds value
func (ms *MemoryStore) DeleteIfEquals(_ context.Context, key, value string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, exists := ms.items[key]
	if !exists || item.expired(time.Now()) || item.value != value {
		return false, nil
	}

	delete(ms.items, key)
	return true, nil
}

// Get retrieves a value by key (returns empty string if not found or expired)
func (ms *MemoryStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[key]
	if !exists || item.expired(time.Now()) {
		return "", false
	}

	return item.value, true
}

// Allow admits the first call per key within window
func (ms *MemoryStore) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	return ms.SetNX(ctx, key, "1", window)
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() {
	ms.once.Do(func() { close(ms.stop) })
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := time.Now()
			for key, item := range ms.items {
				if item.expired(now) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}
