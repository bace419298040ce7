package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FINDASH_TEST_MODE", "1")
	RefreshTestMode()
	t.Setenv("CSRF_SECRET", "csrf")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "generated", cfg.DataDir)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "*/30 * * * *", cfg.WarmupCron)
	assert.False(t, cfg.IsProduction())

	key, err := cfg.DefaultPeriodKey()
	require.NoError(t, err)
	assert.True(t, key.IsZero())
}

func TestLoadConfigRequiresCSRFSecret(t *testing.T) {
	t.Setenv("FINDASH_TEST_MODE", "1")
	RefreshTestMode()
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigValidatesDefaultPeriod(t *testing.T) {
	t.Setenv("FINDASH_TEST_MODE", "1")
	RefreshTestMode()
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("DEFAULT_PERIOD", "2025-12")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "DEFAULT_PERIOD")

	t.Setenv("DEFAULT_PERIOD", "25.11")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	key, err := cfg.DefaultPeriodKey()
	require.NoError(t, err)
	assert.Equal(t, "25.11", key.String())
}

func TestIsProduction(t *testing.T) {
	var nilCfg *Config
	assert.False(t, nilCfg.IsProduction())
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
}
