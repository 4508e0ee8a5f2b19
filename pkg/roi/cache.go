package roi

import (
	"context"
	"sync"
)

// TokenCache stores the session token and its expiry outside the client so
// other clients, in this process or another, can reuse them.
//
// Get returns def when key has no value. Implementations must be safe for
// concurrent use.
type TokenCache interface {
	Get(ctx context.Context, key, def string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// BatchTokenCache is a TokenCache that can write several keys at once. When a
// cache implements it the session token and its expiry are stored together,
// so readers never see one without the other.
type BatchTokenCache interface {
	TokenCache
	SetMany(ctx context.Context, values map[string]string) error
}

// MemoryTokenCache keeps values in process memory. Share one instance between
// clients to share their session.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTokenCache creates an empty memory cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{values: make(map[string]string)}
}

// Get implements TokenCache.
func (c *MemoryTokenCache) Get(ctx context.Context, key, def string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.values[key]
	if !ok {
		return def, nil
	}

	return value, nil
}

// Set implements TokenCache.
func (c *MemoryTokenCache) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = value

	return nil
}

// SetMany implements BatchTokenCache.
func (c *MemoryTokenCache) SetMany(ctx context.Context, values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, value := range values {
		c.values[key] = value
	}

	return nil
}

// Delete removes key.
func (c *MemoryTokenCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.values, key)

	return nil
}
