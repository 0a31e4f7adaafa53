package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/utafrali/storefront/internal/repository/resilient"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// EnvPrefix is prepended to every variable read by Load.
const EnvPrefix = "CATALOG_"

// MaxPageSize bounds PAGE_SIZE.
const MaxPageSize = 100

// Storage backends.
const (
	BackendMemory        = "memory"
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
)

// Backends lists the accepted STORAGE_BACKEND values.
var Backends = []string{BackendMemory, BackendPostgres, BackendElasticsearch}

// Config holds all configuration for the catalog service.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"catalog-service"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8090"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Catalog
	PageSize       int    `env:"PAGE_SIZE" envDefault:"12"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// Database pool
	DBMaxConns            int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int           `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int           `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	DBStatementTimeout    time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"5s"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Redis. An empty host disables the count cache and Redis idempotency.
	RedisHost     string        `env:"REDIS_HOST"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CountCacheTTL time.Duration `env:"COUNT_CACHE_TTL" envDefault:"30s"`

	// Elasticsearch
	ElasticsearchURLs  []string `env:"ELASTICSEARCH_URLS" envDefault:"http://localhost:9200" envSeparator:","`
	ElasticsearchIndex string   `env:"ELASTICSEARCH_INDEX" envDefault:"storefront_catalog"`

	// Kafka projector
	ProjectorEnabled bool          `env:"PROJECTOR_ENABLED" envDefault:"false"`
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" envDefault:"catalog-projector"`
	IdempotencyTTL   time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Circuit breaker
	BreakerEnabled      bool          `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.6"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerOpenTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	// Rate limiting per client IP. Zero RPS disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// HTTP caching of catalog pages
	CacheMaxAge               int `env:"CACHE_MAX_AGE" envDefault:"30"`
	CacheStaleWhileRevalidate int `env:"CACHE_STALE_WHILE_REVALIDATE" envDefault:"60"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// OpenTelemetry, read from CATALOG_OTEL_*.
	Tracing tracing.Config `envPrefix:"OTEL_"`
}

// Load reads configuration from CATALOG_ prefixed environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithPrefix(cfg, EnvPrefix); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = cfg.ServiceName
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("PAGE_SIZE must be between 1 and %d, got %d", MaxPageSize, c.PageSize)
	}
	if !slices.Contains(Backends, c.StorageBackend) {
		return fmt.Errorf("unknown STORAGE_BACKEND %q, want one of %v", c.StorageBackend, Backends)
	}

	switch c.StorageBackend {
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	case BackendElasticsearch:
		if len(c.ElasticsearchURLs) == 0 {
			return fmt.Errorf("ELASTICSEARCH_URLS is required")
		}
	}

	if c.ProjectorEnabled && c.StorageBackend == BackendMemory {
		return fmt.Errorf("PROJECTOR_ENABLED requires a persistent STORAGE_BACKEND")
	}
	if c.ProjectorEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.RedisHost != "" && c.CountCacheTTL <= 0 {
		return fmt.Errorf("COUNT_CACHE_TTL must be positive, got %s", c.CountCacheTTL)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailureRatio)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	return nil
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:             c.PostgresHost,
		Port:             c.PostgresPort,
		User:             c.PostgresUser,
		Password:         c.PostgresPass,
		DBName:           c.PostgresDB,
		SSLMode:          c.PostgresSSL,
		ApplicationName:  c.ServiceName,
		StatementTimeout: c.DBStatementTimeout,
		MaxConns:         c.DBMaxConns,
		MinConns:         c.DBMinConns,
		MaxConnLifetime:  time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime:  time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// RedisEnabled reports whether a Redis host is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Breaker returns the circuit breaker settings for the storage backend.
func (c *Config) Breaker() resilient.Config {
	bc := resilient.DefaultConfig(c.StorageBackend)
	bc.FailureRatio = c.BreakerFailureRatio
	bc.MinRequests = c.BreakerMinRequests
	bc.Timeout = c.BreakerOpenTimeout
	return bc
}

// CORS returns the CORS middleware configuration.
func (c *Config) CORS() middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	cc.AllowedOrigins = c.CORSAllowedOrigins
	cc.Environment = c.Environment
	return cc
}

// SlowQueryThreshold returns the slow query logging threshold.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
