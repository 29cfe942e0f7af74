// Package kitsvc resolves kit templates into accessory candidates and binds
// them to live availability for a requested rental window.
package kitsvc

import (
	"context"
	"fmt"
	"time"

	"gearrental/model"
	"gearrental/service/availability"
	"gearrental/util/daterange"
)

type BookingRepo interface {
	FetchBookings(ctx context.Context, equipmentID int64, asOf *time.Time) ([]model.ExistingBooking, error)
	FetchStock(ctx context.Context, equipmentIDs []int64) (map[int64]int, error)
}

type Service interface {
	// CheckItem runs a standalone availability check for one item.
	CheckItem(ctx context.Context, itemID int64, r daterange.Range, quantity int) (*model.AvailabilityResult, error)

	// ResolveKit returns the primary result plus per-slot candidates; items
	// without a template resolve with no slots.
	ResolveKit(ctx context.Context, primaryItemID int64, r daterange.Range, quantity int) (*model.ResolvedKit, error)
}

type service struct {
	catalog  Catalog
	bookings BookingRepo
	binder   *Binder
}

func New(c Catalog, t TemplateRepo, b BookingRepo) Service {
	binder := NewBinder(NewResolver(t, c), c).WithStock(b.FetchStock)
	return &service{catalog: c, bookings: b, binder: binder}
}

// lookup fetches fresh bookings per call. Bookings ending before the
// requested start cannot overlap it, so they are skipped at the store.
func (s *service) lookup(r daterange.Range) BookingsLookup {
	asOf := r.Start
	return Memoize(func(ctx context.Context, itemID int64) ([]model.ExistingBooking, error) {
		return s.bookings.FetchBookings(ctx, itemID, &asOf)
	})
}

func (s *service) CheckItem(ctx context.Context, itemID int64, r daterange.Range, quantity int) (*model.AvailabilityResult, error) {
	if err := availability.Validate(quantity, r); err != nil {
		return nil, err
	}
	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, makeErr(ErrItemNotFound)
	}
	if err := s.binder.liveStock(ctx, item); err != nil {
		return nil, err
	}
	bookings, err := s.lookup(r)(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	res, err := availability.CheckItem(*item, quantity, r, bookings)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *service) ResolveKit(ctx context.Context, primaryItemID int64, r daterange.Range, quantity int) (*model.ResolvedKit, error) {
	return s.binder.ResolveKit(ctx, primaryItemID, r, quantity, s.lookup(r))
}
