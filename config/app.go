package config

import "time"

type App struct {
	Port            string        `env:"APP_PORT" default:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	RedisURL        string        `env:"REDIS_URL"`
	JWTSecret       string        `env:"JWT_SECRET" default:"local_dev_secret"`
	Env             string        `env:"APP_ENV" default:"dev"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" default:"5m"`
	BookingHoldTTL  time.Duration `env:"BOOKING_HOLD_TTL" default:"30m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" default:"1m"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" default:"20"`
}

func (a App) IsProduction() bool { return a.Env == "production" || a.Env == "prod" }
