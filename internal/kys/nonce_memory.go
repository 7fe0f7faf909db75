package kys

import (
	"context"
	"sync"
	"time"
)

// MemoryNonceCache is an in-process NonceCache fake for tests.
type MemoryNonceCache struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemoryNonceCache() *MemoryNonceCache {
	return &MemoryNonceCache{expires: make(map[string]time.Time)}
}

func (c *MemoryNonceCache) Reserve(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if exp, ok := c.expires[nonce]; ok && time.Now().Before(exp) {
		return true, nil
	}
	c.expires[nonce] = time.Now().Add(ttl)
	return false, nil
}
