// repository/cache/catalog.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gearrental/model"
	equipmentrepo "gearrental/repository/equipment"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const keyPrefix = "catalog:v1:"

// Store is the subset of redis used here.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Catalog is a read-through cache in front of the equipment repo. Redis errors
// never fail a read; a breaker stops calling redis while it is unhealthy.
type Catalog struct {
	next equipmentrepo.Repo
	rdb  Store
	ttl  time.Duration
	cb   *gobreaker.CircuitBreaker
	log  *slog.Logger
}

var _ equipmentrepo.Repo = (*Catalog)(nil)

func NewCatalog(next equipmentrepo.Repo, rdb Store, ttl time.Duration, log *slog.Logger) *Catalog {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog-cache",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Catalog{next: next, rdb: rdb, ttl: ttl, cb: cb, log: log}
}

func (c *Catalog) FetchEquipmentItem(ctx context.Context, id int64) (*model.EquipmentItem, error) {
	key := fmt.Sprintf("%sitem:%d", keyPrefix, id)
	var it model.EquipmentItem
	if c.get(ctx, key, &it) {
		return &it, nil
	}
	out, err := c.next.FetchEquipmentItem(ctx, id)
	if err != nil || out == nil {
		return out, err
	}
	c.set(ctx, key, out)
	return out, nil
}

func (c *Catalog) FetchEquipmentByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error) {
	key := fmt.Sprintf("%scategory:%d", keyPrefix, categoryID)
	var items []model.EquipmentItem
	if c.get(ctx, key, &items) {
		return items, nil
	}
	out, err := c.next.FetchEquipmentByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, out)
	return out, nil
}

func (c *Catalog) FetchTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error) {
	key := keyPrefix + "taxonomy"
	var tax model.CategoryTaxonomy
	if c.get(ctx, key, &tax) {
		return tax, nil
	}
	out, err := c.next.FetchTaxonomy(ctx)
	if err != nil {
		return out, err
	}
	c.set(ctx, key, out)
	return out, nil
}

func (c *Catalog) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.cb.Execute(func() (interface{}, error) {
		return c.rdb.Get(ctx, key).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, gobreaker.ErrOpenState) {
			c.log.Warn("catalog cache get", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw.([]byte), dst); err != nil {
		c.log.Warn("catalog cache decode", "key", key, "err", err)
		return false
	}
	return true
}

func (c *Catalog) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, key, b, c.ttl).Err()
	})
	if err != nil && !errors.Is(err, gobreaker.ErrOpenState) {
		c.log.Warn("catalog cache set", "key", key, "err", err)
	}
}
