// Package cache holds rendered read responses keyed by namespace. Writes
// never update entries in place; they invalidate whole namespaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comment-tree-api/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Namespace groups entries produced by one read operation
type Namespace string

const (
	NamespaceFullTree  Namespace = "fulltree"
	NamespaceNextLevel Namespace = "nextlevel"
	NamespaceUsers     Namespace = "users"
)

// Namespaces lists every namespace a write invalidates
var Namespaces = []Namespace{NamespaceFullTree, NamespaceNextLevel, NamespaceUsers}

// Generation identifies the state of a namespace between two invalidations
type Generation int64

// Cache stores JSON-encodable values
type Cache interface {
	// Generation returns the current generation of ns. Read it before
	// loading a value so that Set can detect a concurrent invalidation.
	Generation(ctx context.Context, ns Namespace) (Generation, error)
	// Get decodes the entry into dest and reports whether it was present
	Get(ctx context.Context, ns Namespace, key string, dest interface{}) (bool, error)
	// Set stores value only while ns is still at gen. A value loaded before
	// an invalidation is never visible after it.
	Set(ctx context.Context, ns Namespace, key string, value interface{}, gen Generation) error
	// Invalidate drops every entry of the given namespaces
	Invalidate(ctx context.Context, namespaces ...Namespace) error
	Close() error
}

// Key joins key parts with "-", e.g. Key(5, 3) == "5-3"
func Key(parts ...interface{}) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "-")
}

// New builds the backend selected by cfg
func New(ctx context.Context, cfg config.CacheConfig, log zerolog.Logger) (Cache, error) {
	log = log.With().Str("component", "cache").Str("backend", cfg.Backend).Logger()

	switch cfg.Backend {
	case config.CacheBackendNone:
		log.Info().Msg("Read cache disabled")
		return Nop{}, nil
	case config.CacheBackendLRU:
		c, err := NewLRU(cfg.Size, cfg.TTL)
		if err != nil {
			return nil, err
		}
		log.Info().Int("size", cfg.Size).Dur("ttl", cfg.TTL).Msg("In-process read cache ready")
		return c, nil
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("Redis read cache ready")
		return NewRedis(client, cfg.KeyPrefix, cfg.TTL), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

func encode(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

func decode(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cache entry: %w", err)
	}
	return nil
}

// Nop never stores anything
type Nop struct{}

func (Nop) Generation(context.Context, Namespace) (Generation, error)             { return 0, nil }
func (Nop) Get(context.Context, Namespace, string, interface{}) (bool, error)     { return false, nil }
func (Nop) Set(context.Context, Namespace, string, interface{}, Generation) error { return nil }
func (Nop) Invalidate(context.Context, ...Namespace) error                        { return nil }
func (Nop) Close() error                                                          { return nil }
