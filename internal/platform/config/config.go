// Package config builds the process configuration from environment
// variables so main stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates per-subsystem configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Resolver Resolver
	Auth     Auth
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
}

// Database configures the Postgres patient store. An empty host selects the
// in-memory store (development mode).
type Database struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// DSN renders the pgx connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Enabled reports whether a Postgres store is configured.
func (d Database) Enabled() bool {
	return d.Host != ""
}

// Redis configures the resolution cache backend. An empty URL selects the
// in-memory cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Resolver tunes the identity resolution engine.
type Resolver struct {
	// CacheTTL bounds how long a resolved identity may be served without
	// re-querying the backing store.
	CacheTTL time.Duration
	// CacheMaxEntries bounds the in-memory cache size.
	CacheMaxEntries int
	// DefaultSearchLimit applies when a search request omits the limit.
	DefaultSearchLimit int
	// StoreTimeout caps a single backing store query.
	StoreTimeout time.Duration
}

// Auth configures the bearer-token middleware fronting the API.
type Auth struct {
	// JWTSigningKey validates tokens minted by the conversation platform.
	// Empty disables auth (development only).
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// FromEnv reads configuration with development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("CLINID_ADDR", ":8080"),
			RequestTimeout:  envSeconds("CLINID_REQUEST_TIMEOUT_SECONDS", 30*time.Second),
			RateLimitPerSec: envFloat("CLINID_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:  envInt("CLINID_RATE_LIMIT_BURST", 40),
		},
		Database: Database{
			Host:     os.Getenv("CLINID_DB_HOST"),
			Port:     envInt("CLINID_DB_PORT", 5432),
			Name:     envString("CLINID_DB_NAME", "clinid"),
			User:     envString("CLINID_DB_USER", "clinid"),
			Password: os.Getenv("CLINID_DB_PASSWORD"),
			SSLMode:  envString("CLINID_DB_SSLMODE", "disable"),
		},
		Redis: Redis{
			URL:          os.Getenv("CLINID_REDIS_URL"),
			PoolSize:     envInt("CLINID_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CLINID_REDIS_MIN_IDLE", 2),
			DialTimeout:  envSeconds("CLINID_REDIS_DIAL_TIMEOUT_SECONDS", 5*time.Second),
			ReadTimeout:  envSeconds("CLINID_REDIS_READ_TIMEOUT_SECONDS", 3*time.Second),
			WriteTimeout: envSeconds("CLINID_REDIS_WRITE_TIMEOUT_SECONDS", 3*time.Second),
		},
		Resolver: Resolver{
			CacheTTL:           envSeconds("CLINID_CACHE_TTL_SECONDS", 300*time.Second),
			CacheMaxEntries:    envInt("CLINID_CACHE_MAX_ENTRIES", 1024),
			DefaultSearchLimit: envInt("CLINID_SEARCH_DEFAULT_LIMIT", 3),
			StoreTimeout:       envSeconds("CLINID_STORE_TIMEOUT_SECONDS", 5*time.Second),
		},
		Auth: Auth{
			JWTSigningKey: os.Getenv("CLINID_JWT_SIGNING_KEY"),
			Issuer:        envString("CLINID_JWT_ISSUER", "clinid"),
			Audience:      envString("CLINID_JWT_AUDIENCE", "clinid-api"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
