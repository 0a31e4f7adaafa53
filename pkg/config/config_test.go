package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int           `env:"PORT" envDefault:"8080"`
	PageSize int           `env:"PAGE_SIZE" envDefault:"12"`
	Brokers  []string      `env:"BROKERS" envDefault:"localhost:9092" envSeparator:","`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	Debug    bool          `env:"DEBUG" envDefault:"false"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.Debug)
}

func TestLoadWithPrefix_FromEnvVars(t *testing.T) {
	t.Setenv("TESTCFG_PORT", "9090")
	t.Setenv("TESTCFG_PAGE_SIZE", "24")
	t.Setenv("TESTCFG_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TESTCFG_CACHE_TTL", "5s")
	t.Setenv("TESTCFG_DEBUG", "true")

	var cfg testConfig
	err := LoadWithPrefix(&cfg, "TESTCFG_")

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 24, cfg.PageSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.Debug)
}

func TestLoadWithPrefix_IgnoresUnprefixedVars(t *testing.T) {
	t.Setenv("PORT", "1234")

	var cfg testConfig
	err := LoadWithPrefix(&cfg, "TESTCFG_")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

type requiredConfig struct {
	DSN string `env:"TEST_CFG_DSN,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_RequiredFieldPresent(t *testing.T) {
	t.Setenv("TEST_CFG_DSN", "postgres://localhost/catalog")

	var cfg requiredConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "postgres://localhost/catalog", cfg.DSN)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TESTCFG_PAGE_SIZE", "twelve")

	var cfg testConfig
	err := LoadWithPrefix(&cfg, "TESTCFG_")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
