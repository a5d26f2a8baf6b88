package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares entries between instances. Each namespace has a version
// counter that is part of every entry key; invalidation bumps the counter
// and old entries age out through their TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps an existing client
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (c *Redis) versionKey(ns Namespace) string {
	return fmt.Sprintf("%s:%s:version", c.prefix, ns)
}

func (c *Redis) version(ctx context.Context, ns Namespace) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(ns)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *Redis) entryKey(ns Namespace, gen Generation, key string) string {
	return fmt.Sprintf("%s:%s:v%d:%s", c.prefix, ns, gen, key)
}

// Generation returns the current version of ns
func (c *Redis) Generation(ctx context.Context, ns Namespace) (Generation, error) {
	v, err := c.version(ctx, ns)
	if err != nil {
		return 0, fmt.Errorf("read %s cache version: %w", ns, err)
	}
	return Generation(v), nil
}

// Get decodes the entry stored under the current namespace version
func (c *Redis) Get(ctx context.Context, ns Namespace, key string, dest interface{}) (bool, error) {
	gen, err := c.Generation(ctx, ns)
	if err != nil {
		return false, err
	}
	k := c.entryKey(ns, gen, key)

	data, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", k, err)
	}

	if err := decode(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores the entry under version gen. After an invalidation that
// version is no longer read, so the entry only waits for its TTL.
func (c *Redis) Set(ctx context.Context, ns Namespace, key string, value interface{}, gen Generation) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	k := c.entryKey(ns, gen, key)
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

// Invalidate bumps the version of every given namespace in one round trip
func (c *Redis) Invalidate(ctx context.Context, namespaces ...Namespace) error {
	if len(namespaces) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, ns := range namespaces {
		pipe.Incr(ctx, c.versionKey(ns))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
