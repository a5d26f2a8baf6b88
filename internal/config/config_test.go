package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("CACHE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, CacheBackendLRU, cfg.Cache.Backend)
	assert.Equal(t, 5, cfg.Comments.DefaultMaxDepth)
	assert.Equal(t, 10, cfg.Comments.DefaultPageSize)
	assert.Equal(t, 100, cfg.Comments.MaxPageSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COMMENTS_DEFAULT_PAGE_SIZE", "25")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.Equal(t, 25, cfg.Comments.DefaultPageSize)
	assert.False(t, cfg.Server.RunMigrations)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_SIZE", "lots")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Cache.Size)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Host: "db", Name: "comments"},
			Comments: CommentsConfig{DefaultMaxDepth: 5, MaxDepthLimit: 50, DefaultPageSize: 10, MaxPageSize: 100},
			Cache:    CacheConfig{Backend: CacheBackendLRU, Size: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing host", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
		{"missing name", func(c *Config) { c.Database.Name = "" }, "DB_NAME"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"zero lru size", func(c *Config) { c.Cache.Size = 0 }, "CACHE_SIZE"},
		{"no cache ignores size", func(c *Config) { c.Cache.Backend = CacheBackendNone; c.Cache.Size = 0 }, ""},
		{"redis without ttl", func(c *Config) { c.Cache.Backend = CacheBackendRedis; c.Cache.TTL = 0 }, "CACHE_TTL"},
		{"redis with ttl", func(c *Config) { c.Cache.Backend = CacheBackendRedis; c.Cache.TTL = time.Minute }, ""},
		{"lru without ttl", func(c *Config) { c.Cache.TTL = 0 }, ""},
		{"page size above max", func(c *Config) { c.Comments.DefaultPageSize = 500 }, "COMMENTS_DEFAULT_PAGE_SIZE"},
		{"depth above limit", func(c *Config) { c.Comments.DefaultMaxDepth = 51 }, "COMMENTS_DEFAULT_MAX_DEPTH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: "5433", User: "u", Password: "p", Name: "n", SSLMode: "require"}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=n sslmode=require", c.GetDSN())
}
