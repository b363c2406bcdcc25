package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/config"
)

type billingTestConfig struct {
	DueDays  int           `env:"TEST_BILLING_DUE_DAYS" envDefault:"15"`
	Timeout  time.Duration `env:"TEST_DISPATCH_TIMEOUT" envDefault:"15s"`
	Currency string        `env:"TEST_BILLING_CURRENCY" envDefault:"BRL"`
}

type requiredTestConfig struct {
	APIKey string `env:"TEST_REQUIRED_API_KEY,required"`
}

type cachedTestConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		config.Reset()
		var cfg billingTestConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 15, cfg.DueDays)
		assert.Equal(t, 15*time.Second, cfg.Timeout)
		assert.Equal(t, "BRL", cfg.Currency)
	})

	t.Run("reads environment", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_BILLING_DUE_DAYS", "10")
		t.Setenv("TEST_DISPATCH_TIMEOUT", "30s")

		var cfg billingTestConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 10, cfg.DueDays)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("missing required variable", func(t *testing.T) {
		config.Reset()
		var cfg requiredTestConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *billingTestConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestLoad_CachesPerType(t *testing.T) {
	config.Reset()
	t.Setenv("TEST_CACHED_VALUE", "first")

	var first cachedTestConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CACHED_VALUE", "second")
	var second cachedTestConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.Reset()
	var third cachedTestConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestMustLoad_Panics(t *testing.T) {
	config.Reset()
	assert.Panics(t, func() {
		var cfg requiredTestConfig
		config.MustLoad(&cfg)
	})
}

func TestParse_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_REQUIRED_API_KEY=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TEST_REQUIRED_API_KEY") })

	var cfg requiredTestConfig
	require.NoError(t, config.Parse(&cfg, path))
	assert.Equal(t, "from-file", cfg.APIKey)

	err := config.Parse(&cfg, filepath.Join(dir, "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
