package tenant

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache stores registry record snapshots keyed by domain, identifier or id.
// The registry is responsible for key construction and invalidation order;
// implementations only need point get/set/delete semantics.
type Cache interface {
	// Get retrieves a record from cache by key.
	Get(ctx context.Context, key string) (*Record, bool)

	// Set stores a record in cache with the given TTL.
	Set(ctx context.Context, key string, rec *Record, ttl time.Duration)

	// Delete removes a record from cache.
	Delete(ctx context.Context, key string)

	// Close releases any resources held by the cache.
	Close() error
}

// FeatureCache stores tenant feature-flag JSON keyed by tenant id. It is
// populated together with the metadata cache so the common "resolve tenant,
// then read its features" pattern costs a single master-store round trip.
type FeatureCache interface {
	Get(ctx context.Context, tenantID uuid.UUID) (json.RawMessage, bool)
	Set(ctx context.Context, tenantID uuid.UUID, features json.RawMessage, ttl time.Duration)
	Delete(ctx context.Context, tenantID uuid.UUID)
	Close() error
}

// DefaultCacheSize is the default maximum number of items in a cache.
const DefaultCacheSize = 1000

// memoryStore is a size-bounded TTL map with LRU eviction, shared by the
// in-memory metadata and feature caches.
type memoryStore[V any] struct {
	mu      sync.Mutex
	items   map[string]memoryItem[V]
	lru     []string
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type memoryItem[V any] struct {
	value     V
	expiresAt time.Time
}

func newMemoryStore[V any](maxSize int) *memoryStore[V] {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	s := &memoryStore[V]{
		items:   make(map[string]memoryItem[V]),
		lru:     make([]string, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *memoryStore[V]) get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	item, exists := s.items[key]
	if !exists {
		return zero, false
	}
	if time.Now().After(item.expiresAt) {
		delete(s.items, key)
		s.removeLRU(key)
		return zero, false
	}
	s.touchLRU(key)
	return item.value, true
}

func (s *memoryStore[V]) set(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; !exists && len(s.items) >= s.maxSize {
		if len(s.lru) > 0 {
			evict := s.lru[0]
			delete(s.items, evict)
			s.lru = s.lru[1:]
		}
	}
	s.items[key] = memoryItem[V]{value: value, expiresAt: time.Now().Add(ttl)}
	s.touchLRU(key)
}

func (s *memoryStore[V]) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	s.removeLRU(key)
}

func (s *memoryStore[V]) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore[V]) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, key)
			s.removeLRU(key)
		}
	}
}

func (s *memoryStore[V]) touchLRU(key string) {
	s.removeLRU(key)
	s.lru = append(s.lru, key)
}

func (s *memoryStore[V]) removeLRU(key string) {
	for i, k := range s.lru {
		if k == key {
			s.lru = append(s.lru[:i], s.lru[i+1:]...)
			return
		}
	}
}

func (s *memoryStore[V]) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}

// inMemoryCache is the default in-process metadata cache.
type inMemoryCache struct {
	store *memoryStore[*Record]
}

// NewInMemoryCache creates an in-memory metadata cache with automatic cleanup.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates an in-memory metadata cache with the given
// size limit.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	return &inMemoryCache{store: newMemoryStore[*Record](maxSize)}
}

func (c *inMemoryCache) Get(ctx context.Context, key string) (*Record, bool) {
	return c.store.get(key)
}

func (c *inMemoryCache) Set(ctx context.Context, key string, rec *Record, ttl time.Duration) {
	c.store.set(key, rec, ttl)
}

func (c *inMemoryCache) Delete(ctx context.Context, key string) {
	c.store.delete(key)
}

func (c *inMemoryCache) Close() error {
	return c.store.close()
}

// inMemoryFeatureCache is the default in-process feature cache.
type inMemoryFeatureCache struct {
	store *memoryStore[json.RawMessage]
}

// NewInMemoryFeatureCache creates an in-memory feature cache with automatic
// cleanup.
func NewInMemoryFeatureCache() FeatureCache {
	return &inMemoryFeatureCache{store: newMemoryStore[json.RawMessage](DefaultCacheSize)}
}

func (c *inMemoryFeatureCache) Get(ctx context.Context, tenantID uuid.UUID) (json.RawMessage, bool) {
	return c.store.get(tenantID.String())
}

func (c *inMemoryFeatureCache) Set(ctx context.Context, tenantID uuid.UUID, features json.RawMessage, ttl time.Duration) {
	c.store.set(tenantID.String(), features, ttl)
}

func (c *inMemoryFeatureCache) Delete(ctx context.Context, tenantID uuid.UUID) {
	c.store.delete(tenantID.String())
}

func (c *inMemoryFeatureCache) Close() error {
	return c.store.close()
}

// noOpCache disables metadata caching. Useful for tests and debugging.
type noOpCache struct{}

// NewNoOpCache creates a metadata cache that doesn't cache.
func NewNoOpCache() Cache { return &noOpCache{} }

func (noOpCache) Get(ctx context.Context, key string) (*Record, bool) { return nil, false }

func (noOpCache) Set(ctx context.Context, key string, rec *Record, ttl time.Duration) {}

func (noOpCache) Delete(ctx context.Context, key string) {}

func (noOpCache) Close() error { return nil }
