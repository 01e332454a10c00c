package memory

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"todolists/internal/core/port"
)

type memoryRepository struct {
	store *cache.Cache
}

// NewMemoryRepository keeps the registry in process memory. Entries do not
// survive a restart, which the boot sequence re-arms from the store anyway.
func NewMemoryRepository() port.CacheRepository {
	return &memoryRepository{
		store: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (c *memoryRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.store.Set(key, stored, ttl)

	return nil
}

func (c *memoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := c.store.Get(key)

	if !found {
		return nil, port.ErrCacheMiss
	}

	return value.([]byte), nil
}

func (c *memoryRepository) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	entries := make(map[string][]byte)

	for key, item := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			entries[key] = item.Object.([]byte)
		}
	}

	return entries, nil
}

func (c *memoryRepository) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)

	return nil
}

func (c *memoryRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}

	return nil
}

func (c *memoryRepository) Close() error {
	c.store.Flush()

	return nil
}
