package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, 30*time.Second, cfg.CountCacheTTL)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.ProjectorEnabled)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.ElasticsearchURLs)
	assert.Equal(t, "catalog-service", cfg.Tracing.ServiceName)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_PrefixedOverrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"CATALOG_HTTP_PORT":          "9100",
		"CATALOG_PAGE_SIZE":          "24",
		"CATALOG_STORAGE_BACKEND":    "elasticsearch",
		"CATALOG_ELASTICSEARCH_URLS": "http://es-1:9200,http://es-2:9200",
		"CATALOG_REDIS_HOST":         "redis",
		"CATALOG_OTEL_ENABLED":       "true",
		"CATALOG_OTEL_SAMPLE_RATE":   "0.25",
		"HTTP_PORT":                  "1",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, 24, cfg.PageSize)
	assert.Equal(t, BackendElasticsearch, cfg.StorageBackend)
	assert.Equal(t, []string{"http://es-1:9200", "http://es-2:9200"}, cfg.ElasticsearchURLs)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.Tracing.Enabled)
	assert.InDelta(t, 0.25, cfg.Tracing.SampleRate, 1e-9)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{"port", map[string]string{"CATALOG_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"page size", map[string]string{"CATALOG_PAGE_SIZE": "500"}, "PAGE_SIZE must be between"},
		{"backend", map[string]string{"CATALOG_STORAGE_BACKEND": "mongo"}, "unknown STORAGE_BACKEND"},
		{"pool", map[string]string{"CATALOG_DB_MIN_CONNS": "30"}, "exceeds DB_MAX_CONNS"},
		{"projector on memory", map[string]string{
			"CATALOG_STORAGE_BACKEND":   "memory",
			"CATALOG_PROJECTOR_ENABLED": "true",
		}, "requires a persistent STORAGE_BACKEND"},
		{"breaker ratio", map[string]string{"CATALOG_BREAKER_FAILURE_RATIO": "1.5"}, "BREAKER_FAILURE_RATIO"},
		{"rate limit", map[string]string{"CATALOG_RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
		{"burst", map[string]string{"CATALOG_RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
		{"sample rate", map[string]string{"CATALOG_OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"malformed duration", map[string]string{"CATALOG_COUNT_CACHE_TTL": "soon"}, "load catalog config"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setEnvs(t, tc.envs)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConfig_Derived(t *testing.T) {
	setEnvs(t, map[string]string{
		"CATALOG_POSTGRES_HOST":                "db",
		"CATALOG_DB_MAX_CONN_LIFETIME_MINUTES": "5",
		"CATALOG_REDIS_HOST":                   "cache",
		"CATALOG_BREAKER_OPEN_TIMEOUT":         "10s",
		"CATALOG_CORS_ALLOWED_ORIGINS":         "https://shop.example",
		"CATALOG_ENVIRONMENT":                  "production",
		"CATALOG_LOG_SLOW_QUERY_MS":            "250",
	})

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, 5*time.Minute, pg.MaxConnLifetime)
	assert.Equal(t, "catalog-service", pg.ApplicationName)

	assert.Equal(t, "cache:6379", cfg.Redis().Addr())

	br := cfg.Breaker()
	assert.Equal(t, "postgres", br.Name)
	assert.Equal(t, 10*time.Second, br.Timeout)
	assert.InDelta(t, 0.6, br.FailureRatio, 1e-9)

	cors := cfg.CORS()
	assert.Equal(t, []string{"https://shop.example"}, cors.AllowedOrigins)
	assert.Equal(t, "production", cors.Environment)

	assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryThreshold())
}
