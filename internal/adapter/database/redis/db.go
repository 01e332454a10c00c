package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"todolists/internal/core/port"
)

type redisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisRepository namespaces every key under prefix so several instances
// can share one server.
func NewRedisRepository(client *redis.Client, prefix string) port.CacheRepository {
	return &redisRepository{
		client: client,
		prefix: prefix,
	}
}

func (c *redisRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

func (c *redisRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, port.ErrCacheMiss
		}

		return nil, fmt.Errorf("cache get error: %w", err)
	}

	return data, nil
}

func (c *redisRepository) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	keys, err := c.keys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	entries := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return entries, nil
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache mget error: %w", err)
	}

	for i, value := range values {
		str, ok := value.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}

		entries[strings.TrimPrefix(keys[i], c.prefix)] = []byte(str)
	}

	return entries, nil
}

func (c *redisRepository) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}

	return nil
}

func (c *redisRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	keys, err := c.keys(ctx, prefix)
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}

	return nil
}

func (c *redisRepository) Close() error {
	return c.client.Close()
}

func (c *redisRepository) keys(ctx context.Context, prefix string) ([]string, error) {
	var cursor uint64
	var keys []string

	for {
		batch, nextCursor, err := c.client.Scan(ctx, cursor, c.prefix+prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("cache scan error: %w", err)
		}

		keys = append(keys, batch...)

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
