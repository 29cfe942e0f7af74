package kitsvc

import (
	"context"
	"strconv"
	"sync"

	"gearrental/model"

	"golang.org/x/sync/singleflight"
)

// BookingsLookup returns the live bookings for one item.
// StockLookup returns current total stock per item id.
type StockLookup func(ctx context.Context, itemIDs []int64) (map[int64]int, error)

type BookingsLookup func(ctx context.Context, itemID int64) ([]model.ExistingBooking, error)

// Memoize wraps a lookup for a single resolution call so an item listed twice
// is fetched once. Do not share the result across calls.
func Memoize(next BookingsLookup) BookingsLookup {
	var (
		mu   sync.Mutex
		seen = map[int64][]model.ExistingBooking{}
		sf   singleflight.Group
	)
	return func(ctx context.Context, itemID int64) ([]model.ExistingBooking, error) {
		mu.Lock()
		if b, ok := seen[itemID]; ok {
			mu.Unlock()
			return b, nil
		}
		mu.Unlock()

		v, err, _ := sf.Do(strconv.FormatInt(itemID, 10), func() (interface{}, error) {
			b, err := next(ctx, itemID)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			seen[itemID] = b
			mu.Unlock()
			return b, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]model.ExistingBooking), nil
	}
}

// Prefetched serves lookups from an already-fetched map; missing items have
// no bookings.
func Prefetched(m map[int64][]model.ExistingBooking) BookingsLookup {
	return func(_ context.Context, itemID int64) ([]model.ExistingBooking, error) {
		return m[itemID], nil
	}
}
