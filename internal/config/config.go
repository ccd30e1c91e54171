package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Archive kinds accepted by STORE_ARCHIVE.
const (
	ArchiveNone  = "none"
	ArchiveRedis = "redis"
	ArchiveSQL   = "sql"
)

// Config represents the full runtime configuration tree.
type Config struct {
	App         AppConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	Cors        CORSConfig
	Monitoring  MonitoringConfig
	Diagnostics DiagnosticsConfig
	Ingest      IngestConfig
}

// AppConfig captures application-level settings.
type AppConfig struct {
	Name    string
	Env     string
	Version string
	Port    string
}

// StoreConfig shapes the in-memory capture store.
type StoreConfig struct {
	Shards  int
	Archive string
}

// DatabaseConfig stores database connectivity info for the persisted variant.
type DatabaseConfig struct {
	Enabled         bool
	Driver          string
	DSN             string
	ReadOnlyDSN     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ResetOnStart    bool
}

// RedisConfig stores redis connectivity info.
type RedisConfig struct {
	Addr          string
	Username      string
	Password      string
	DB            int
	TLS           bool
	ArchivePrefix string
	ArchiveTTL    time.Duration
}

// RateLimitConfig manages throttling parameters.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
	RedisPrefix       string
}

// CORSConfig declares cross-origin policy.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// MonitoringConfig adds observability tunables.
type MonitoringConfig struct {
	PrometheusEnabled bool
	SentryDSN         string
	SentrySampleRate  float64
}

// DiagnosticsConfig governs debug helpers.
type DiagnosticsConfig struct {
	EnableDebugLogs bool
	MaxLogLines     int
}

// IngestConfig bounds request bodies on write endpoints.
type IngestConfig struct {
	MaxBodyBytes int64
}

// Load reads from environment (optionally .env) and builds Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:    getenv("APP_NAME", "multiuser-logging-service"),
			Env:     getenv("APP_ENV", "development"),
			Version: getenv("APP_VERSION", "0.1.0"),
			Port:    getenv("PORT", "8082"),
		},
		Store: StoreConfig{
			Shards:  getInt("STORE_SHARDS", 1),
			Archive: strings.ToLower(getenv("STORE_ARCHIVE", ArchiveNone)),
		},
		Database: DatabaseConfig{
			Enabled:         getBool("DB_ENABLED", false),
			Driver:          strings.ToLower(getenv("DB_DRIVER", "postgres")),
			DSN:             getenv("DB_DSN", "postgres://postgres:postgres@db:5432/logs?sslmode=disable"),
			ReadOnlyDSN:     getenv("DB_READ_DSN", ""),
			MaxOpenConns:    getInt("DB_MAX_OPEN", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE", 10),
			ConnMaxLifetime: time.Duration(getInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
			ResetOnStart:    getBool("DB_RESET_ON_START", true),
		},
		Redis: RedisConfig{
			Addr:          getenv("REDIS_ADDR", ""),
			Username:      getenv("REDIS_USER", ""),
			Password:      getenv("REDIS_PASSWORD", ""),
			DB:            getInt("REDIS_DB", 0),
			TLS:           getBool("REDIS_TLS", false),
			ArchivePrefix: getenv("REDIS_ARCHIVE_PREFIX", "archive"),
			ArchiveTTL:    time.Duration(getInt("REDIS_ARCHIVE_TTL_HOURS", 24)) * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBool("RATE_LIMIT_ENABLED", false),
			RequestsPerMinute: getInt("RATE_LIMIT_PER_MIN", 600),
			Burst:             getInt("RATE_LIMIT_BURST", 50),
			RedisPrefix:       getenv("RATE_LIMIT_PREFIX", "ratelimit"),
		},
		Cors: CORSConfig{
			AllowedOrigins:   splitAndTrim(getenv("CORS_ORIGINS", "")),
			AllowedMethods:   splitAndTrim(getenv("CORS_METHODS", "GET,POST,DELETE,OPTIONS")),
			AllowedHeaders:   splitAndTrim(getenv("CORS_HEADERS", "Content-Type,Accept,X-Request-ID,X-Serialized-Encoding")),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: getBool("PROMETHEUS_ENABLED", true),
			SentryDSN:         getenv("SENTRY_DSN", ""),
			SentrySampleRate:  getFloat("SENTRY_SAMPLE_RATE", 0.2),
		},
		Diagnostics: DiagnosticsConfig{
			EnableDebugLogs: getBool("ENABLE_DEBUG_LOGS", true),
			MaxLogLines:     getInt("DEBUG_LOG_LIMIT", 200),
		},
		Ingest: IngestConfig{
			MaxBodyBytes: int64(getInt("INGEST_MAX_BODY_BYTES", 1<<20)),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Store.Shards < 1 {
		return fmt.Errorf("STORE_SHARDS must be at least 1, got %d", c.Store.Shards)
	}
	switch c.Store.Archive {
	case ArchiveNone:
	case ArchiveRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis archive requires REDIS_ADDR")
		}
	case ArchiveSQL:
		if !c.Database.Enabled {
			return fmt.Errorf("sql archive requires DB_ENABLED")
		}
	default:
		return fmt.Errorf("unsupported archive kind %s", c.Store.Archive)
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "postgres", "mysql":
		default:
			return fmt.Errorf("unsupported db driver %s", c.Database.Driver)
		}
	}
	if c.Ingest.MaxBodyBytes <= 0 {
		return fmt.Errorf("INGEST_MAX_BODY_BYTES must be positive")
	}
	return nil
}

func getenv(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getInt(key string, def int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func getFloat(key string, def float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
