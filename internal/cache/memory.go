package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider is an in-process Provider used when no Valkey cluster is
// configured. Entries expire lazily on read.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string]memoryItem
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryProvider creates an empty in-process cache.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string]memoryItem)}
}

// Get returns the cached bytes or ErrCacheMiss when absent or expired.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	it, ok := p.data[key]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		p.mu.Lock()
		delete(p.data, key)
		p.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores a copy of value with an optional TTL; ttl <= 0 means no expiry.
func (p *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	p.mu.Lock()
	p.data[key] = it
	p.mu.Unlock()
	return nil
}

// Del removes a key.
func (p *MemoryProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.data, key)
	p.mu.Unlock()
	return nil
}

// Close drops all entries.
func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	p.data = make(map[string]memoryItem)
	p.mu.Unlock()
	return nil
}
