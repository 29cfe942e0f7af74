package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/gear")
	t.Setenv("BOOKING_HOLD_TTL", "45m")
	t.Setenv("CLEANUP_INTERVAL", "nonsense")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	require.Equal(t, "postgres://localhost/gear", cfg.DatabaseURL)
	require.Equal(t, 45*time.Minute, cfg.BookingHoldTTL)
	require.Equal(t, time.Minute, cfg.CleanupInterval)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 2.5, cfg.RateLimitRPS)
	require.True(t, cfg.IsProduction())
}

func TestLoad_MissingDatabasePanics(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	require.Panics(t, func() { Load() })
}
