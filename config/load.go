package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func Load() App {
	if env := os.Getenv("APP_ENV"); env != "production" && env != "prod" {
		// .env is optional in development
		_ = godotenv.Load()
	}

	cfg := App{
		Port:            getenv("APP_PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       getenv("JWT_SECRET", "local_dev_secret"),
		Env:             getenv("APP_ENV", "dev"),
		CatalogCacheTTL: duration("CATALOG_CACHE_TTL", 5*time.Minute),
		BookingHoldTTL:  duration("BOOKING_HOLD_TTL", 30*time.Minute),
		CleanupInterval: duration("CLEANUP_INTERVAL", time.Minute),
		RateLimitRPS:    float("RATE_LIMIT_RPS", 20),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}

func duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("bad duration, using default", "key", k, "value", v, "default", def.String())
		return def
	}
	return d
}

func float(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		slog.Warn("bad number, using default", "key", k, "value", v)
		return def
	}
	return f
}
