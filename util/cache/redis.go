package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns nil when url is empty; callers then skip caching.
func NewRedis(ctx context.Context, url string, log *slog.Logger) (*redis.Client, error) {
	if url == "" {
		log.Warn("REDIS_URL not set, catalog cache disabled")
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	log.Info("redis connected", "addr", opt.Addr, "db", opt.DB)
	return c, nil
}
