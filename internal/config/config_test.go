package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/nnhair_test",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "test-secret",
	})
	require.NoError(t, err)

	require.Equal(t, "ZAR", cfg.CurrencyCode)
	require.Equal(t, "R", cfg.CurrencySymbol)
	require.Equal(t, "0.15", cfg.TaxRate.String())
	require.Equal(t, "150", cfg.StandardShippingRate.String())
	require.Equal(t, 720*time.Hour, cfg.CartRetention)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "test-secret",
	})
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":           "postgres://localhost/nnhair_test",
		"REDIS_URL":              "redis://localhost:6379",
		"JWT_SECRET":             "test-secret",
		"TAX_RATE":               "0.14",
		"STANDARD_SHIPPING_RATE": "99.90",
		"CART_RETENTION":         "48h",
		"PORT":                   "9000",
	})
	require.NoError(t, err)

	require.Equal(t, "0.14", cfg.TaxRate.String())
	require.Equal(t, "99.9", cfg.StandardShippingRate.String())
	require.Equal(t, 48*time.Hour, cfg.CartRetention)
	require.Equal(t, ":9000", cfg.HTTPAddr())
}
