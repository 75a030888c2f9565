package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every ERP_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "ERP_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "invengine", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "fifo", cfg.Engine.ValuationMethod)
		assert.Equal(t, "USD", cfg.Engine.Currency)
		assert.Equal(t, 0.08, cfg.Engine.TaxRate)
		assert.Equal(t, 25.0, cfg.Engine.ShippingSurcharge)
		assert.Equal(t, 2, cfg.Engine.UrgentStockoutDays)
		assert.Equal(t, 1.5, cfg.Engine.LeadTimeBufferMultiplier)
		assert.Equal(t, "reorder_multiple", cfg.Engine.ExcessPolicy)
		assert.Equal(t, 5.0, cfg.Engine.ExcessMultiplier)
		assert.Equal(t, "memory", cfg.AlertState.Backend)
		assert.True(t, cfg.AlertState.AllowMemoryFallback)
		assert.True(t, cfg.AlertState.PruneStale)
		assert.Equal(t, "localhost", cfg.Redis.Host)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, "invengine:alert_state", cfg.Redis.Key)
		assert.Equal(t, "invengine", cfg.Telemetry.ServiceName)
		assert.Equal(t, 60*time.Second, cfg.Telemetry.MetricsExportInterval)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_NAME", "planner-test")
		t.Setenv("ERP_ENGINE_VALUATION_METHOD", "lifo")
		t.Setenv("ERP_ENGINE_TAX_RATE", "0.2")
		t.Setenv("ERP_ALERT_STATE_BACKEND", "redis")
		t.Setenv("ERP_REDIS_PORT", "6380")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "planner-test", cfg.App.Name)
		assert.Equal(t, "lifo", cfg.Engine.ValuationMethod)
		assert.Equal(t, 0.2, cfg.Engine.TaxRate)
		assert.Equal(t, "redis", cfg.AlertState.Backend)
		assert.Equal(t, 6380, cfg.Redis.Port)
	})

	t.Run("explicit zero tax and shipping are kept", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_ENGINE_TAX_RATE", "0")
		t.Setenv("ERP_ENGINE_SHIPPING_SURCHARGE", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0.0, cfg.Engine.TaxRate)
		assert.Equal(t, 0.0, cfg.Engine.ShippingSurcharge)
	})
}

func TestLoadFrom(t *testing.T) {
	t.Run("reads a toml file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
[app]
name = "file-planner"

[engine]
valuation_method = "weighted_average"
currency = "EUR"
excess_policy = "max_stock_level"

[alert_state]
backend = "redis"
allow_memory_fallback = false
`)

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, "file-planner", cfg.App.Name)
		assert.Equal(t, "weighted_average", cfg.Engine.ValuationMethod)
		assert.Equal(t, "EUR", cfg.Engine.Currency)
		assert.Equal(t, "max_stock_level", cfg.Engine.ExcessPolicy)
		assert.False(t, cfg.AlertState.AllowMemoryFallback)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, "[engine]\nvaluation_method = \"lifo\"\n")
		t.Setenv("ERP_ENGINE_VALUATION_METHOD", "specific_identification")

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, "specific_identification", cfg.Engine.ValuationMethod)
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown valuation method", map[string]string{"ERP_ENGINE_VALUATION_METHOD": "average"}},
		{"bad currency", map[string]string{"ERP_ENGINE_CURRENCY": "DOLLARS"}},
		{"tax rate above one", map[string]string{"ERP_ENGINE_TAX_RATE": "8"}},
		{"negative shipping", map[string]string{"ERP_ENGINE_SHIPPING_SURCHARGE": "-1"}},
		{"buffer under one", map[string]string{"ERP_ENGINE_LEAD_TIME_BUFFER_MULTIPLIER": "0.5"}},
		{"unknown excess policy", map[string]string{"ERP_ENGINE_EXCESS_POLICY": "never"}},
		{"unknown backend", map[string]string{"ERP_ALERT_STATE_BACKEND": "etcd"}},
		{"sampling ratio out of range", map[string]string{"ERP_TELEMETRY_SAMPLING_RATIO": "1.5"}},
		{"memory backend in production", map[string]string{"ERP_APP_ENV": "production"}},
		{"fallback in production", map[string]string{
			"ERP_APP_ENV":             "production",
			"ERP_ALERT_STATE_BACKEND": "redis",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_ALERT_STATE_BACKEND", "redis")
		t.Setenv("ERP_ALERT_STATE_ALLOW_MEMORY_FALLBACK", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}
