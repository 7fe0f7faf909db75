package tokens

import (
	"context"
	"sync"
	"time"
)

// MemoryBlacklist is an in-process Blacklist fake for tests that don't want
// a live Redis instance. Not safe to use across process instances.
type MemoryBlacklist struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{expires: make(map[string]time.Time)}
}

func (b *MemoryBlacklist) Add(_ context.Context, id string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expires[id] = time.Now().Add(ttl)
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.expires[id]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(b.expires, id)
		return false, nil
	}
	return true, nil
}
