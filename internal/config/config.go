package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Comment tree defaults and limits
	Comments CommentsConfig

	// Read cache configuration
	Cache CacheConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
	RunMigrations   bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// CommentsConfig holds request defaults for tree and page endpoints
type CommentsConfig struct {
	DefaultMaxDepth int
	MaxDepthLimit   int
	DefaultPageSize int
	MaxPageSize     int
}

// Cache backends
const (
	CacheBackendNone  = "none"
	CacheBackendLRU   = "lru"
	CacheBackendRedis = "redis"
)

// CacheConfig holds read cache settings
type CacheConfig struct {
	Backend       string // "lru", "redis" or "none"
	Size          int    // LRU entries
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
			RunMigrations:   getBoolEnv("RUN_MIGRATIONS", true),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "comments"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Comments: CommentsConfig{
			DefaultMaxDepth: getIntEnv("COMMENTS_DEFAULT_MAX_DEPTH", 5),
			MaxDepthLimit:   getIntEnv("COMMENTS_MAX_DEPTH_LIMIT", 50),
			DefaultPageSize: getIntEnv("COMMENTS_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getIntEnv("COMMENTS_MAX_PAGE_SIZE", 100),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", CacheBackendLRU),
			Size:          getIntEnv("CACHE_SIZE", 1000),
			TTL:           getDurationEnv("CACHE_TTL", 10*time.Minute),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			KeyPrefix:     getEnv("CACHE_KEY_PREFIX", "comments"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	switch c.Cache.Backend {
	case CacheBackendNone, CacheBackendLRU, CacheBackendRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: none, lru, redis (got %q)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendLRU && c.Cache.Size <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive")
	}
	// Invalidated redis entries are only reclaimed by expiry
	if c.Cache.Backend == CacheBackendRedis && c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive for the redis backend")
	}
	if c.Comments.DefaultPageSize <= 0 || c.Comments.DefaultPageSize > c.Comments.MaxPageSize {
		return fmt.Errorf("COMMENTS_DEFAULT_PAGE_SIZE must be between 1 and COMMENTS_MAX_PAGE_SIZE")
	}
	if c.Comments.DefaultMaxDepth < 0 || c.Comments.DefaultMaxDepth > c.Comments.MaxDepthLimit {
		return fmt.Errorf("COMMENTS_DEFAULT_MAX_DEPTH must be between 0 and COMMENTS_MAX_DEPTH_LIMIT")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
