package translation

import (
	"fmt"
	"strings"
	"sync"
)

// Factory builds a Backend the first time its model key is requested.
type Factory func() (Backend, error)

// ModelCache holds loaded translation backends for the lifetime of the
// process. Entries are created lazily and never evicted.
type ModelCache struct {
	mu      sync.Mutex
	entries map[string]Backend
}

// NewModelCache returns an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{entries: make(map[string]Backend)}
}

// GetOrCreate returns the cached backend for key, invoking factory only when
// no entry exists yet. A failed factory leaves the cache untouched so a later
// call may retry.
func (c *ModelCache) GetOrCreate(key string, factory Factory) (Backend, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("model cache: empty key")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]Backend)
	}
	if backend, ok := c.entries[key]; ok {
		return backend, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("model cache: no factory for %q", key)
	}
	backend, err := factory()
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("model cache: factory for %q returned nil backend", key)
	}
	c.entries[key] = backend
	return backend, nil
}

// Len reports how many backends are loaded.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
