package kitsvc

import (
	"context"
	"errors"
	"fmt"

	"gearrental/model"
	"gearrental/service/availability"
	"gearrental/util/daterange"

	"golang.org/x/sync/errgroup"
)

// errors used by controllers

type ErrCode string

const (
	ErrItemNotFound ErrCode = "ITEM_NOT_FOUND"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

const defaultLookupConcurrency = 8

// Binder annotates a kit's candidates with live availability for one request.
type Binder struct {
	resolver    *Resolver
	catalog     Catalog
	stock       StockLookup
	concurrency int
}

func NewBinder(r *Resolver, c Catalog) *Binder {
	return &Binder{resolver: r, catalog: c, concurrency: defaultLookupConcurrency}
}

// WithConcurrency bounds parallel booking lookups; n < 1 means sequential.
func (b *Binder) WithConcurrency(n int) *Binder {
	if n < 1 {
		n = 1
	}
	b.concurrency = n
	return b
}

// WithStock makes the binder check against stock read by fn instead of the
// TotalStock carried on catalog items, which may come from a cache.
func (b *Binder) WithStock(fn StockLookup) *Binder {
	b.stock = fn
	return b
}

// liveStock overwrites TotalStock for every item the stock lookup knows.
func (b *Binder) liveStock(ctx context.Context, items ...*model.EquipmentItem) error {
	if b.stock == nil || len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	m, err := b.stock(ctx, ids)
	if err != nil {
		return fmt.Errorf("load stock: %w", err)
	}
	for _, it := range items {
		if n, ok := m[it.ID]; ok {
			it.TotalStock = n
		}
	}
	return nil
}

type job struct {
	slot, cand int
	item       model.EquipmentItem
}

// ResolveKit checks the primary item at the requested quantity and every slot
// candidate at model.AccessoryQuantity over the same range. Unavailable candidates
// stay in the list. Any failure fails the whole call.
func (b *Binder) ResolveKit(ctx context.Context, primaryItemID int64, r daterange.Range, quantity int, lookup BookingsLookup) (*model.ResolvedKit, error) {
	if err := availability.Validate(quantity, r); err != nil {
		return nil, err
	}

	primary, err := b.catalog.GetItem(ctx, primaryItemID)
	if err != nil {
		return nil, fmt.Errorf("load primary %d: %w", primaryItemID, err)
	}
	if primary == nil {
		return nil, makeErr(ErrItemNotFound)
	}
	if err := b.liveStock(ctx, primary); err != nil {
		return nil, err
	}
	bookings, err := lookup(ctx, primary.ID)
	if err != nil {
		return nil, fmt.Errorf("bookings for primary %d: %w", primary.ID, err)
	}
	primaryRes, err := availability.CheckItem(*primary, quantity, r, bookings)
	if err != nil {
		return nil, err
	}

	kit := &model.ResolvedKit{Primary: primaryRes, Slots: []model.ResolvedSlot{}}

	tmpl, err := b.resolver.GetTemplate(ctx, primary.ID)
	if err != nil {
		return nil, fmt.Errorf("load kit template for %d: %w", primary.ID, err)
	}
	if tmpl == nil {
		return kit, nil
	}
	kit.TemplateID = &tmpl.ID

	tax, err := b.catalog.GetTaxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	var jobs []job
	kit.Slots = make([]model.ResolvedSlot, len(tmpl.Slots))
	for i, slot := range tmpl.Slots {
		cands, err := b.resolver.resolveCandidates(ctx, slot, tax.Keywords(slot.CategoryID, primary.Brand))
		if err != nil {
			return nil, err
		}
		rs := model.ResolvedSlot{
			SlotName:   slot.SlotName,
			CategoryID: slot.CategoryID,
			Mandatory:  slot.IsMandatoryDefault,
			Candidates: make([]model.KitCandidate, len(cands)),
		}
		for j, c := range cands {
			rs.Candidates[j] = model.KitCandidate{
				Name:        c.Item.Name,
				Brand:       c.Item.Brand,
				Recommended: c.Recommended,
			}
			jobs = append(jobs, job{slot: i, cand: j, item: c.Item})
		}
		kit.Slots[i] = rs
	}

	items := make([]*model.EquipmentItem, len(jobs))
	for i := range jobs {
		items[i] = &jobs[i].item
	}
	if err := b.liveStock(ctx, items...); err != nil {
		return nil, err
	}

	// Each job writes only its own slot/candidate cell, so ordering matches a
	// sequential pass.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, jb := range jobs {
		jb := jb
		g.Go(func() error {
			bookings, err := lookup(gctx, jb.item.ID)
			if err != nil {
				return fmt.Errorf("bookings for %d: %w", jb.item.ID, err)
			}
			res, err := availability.CheckItem(jb.item, model.AccessoryQuantity, r, bookings)
			if err != nil {
				return err
			}
			kit.Slots[jb.slot].Candidates[jb.cand].AvailabilityResult = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return kit, nil
}
