package kitsvc

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gearrental/model"
)

type TemplateRepo interface {
	FetchKitTemplate(ctx context.Context, primaryItemID int64) (*model.KitTemplate, error)
}

type Catalog interface {
	GetItem(ctx context.Context, id int64) (*model.EquipmentItem, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error)
	GetTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error)
}

type Candidate struct {
	Item        model.EquipmentItem
	Recommended bool
}

// Resolver turns a kit template into ordered accessory candidates.
type Resolver struct {
	templates TemplateRepo
	catalog   Catalog
}

func NewResolver(t TemplateRepo, c Catalog) *Resolver {
	return &Resolver{templates: t, catalog: c}
}

// GetTemplate returns nil, nil for items that are not kit-capable.
func (r *Resolver) GetTemplate(ctx context.Context, primaryItemID int64) (*model.KitTemplate, error) {
	return r.templates.FetchKitTemplate(ctx, primaryItemID)
}

// ResolveCandidates lists every eligible item for the slot, recommended ones
// first. primaryBrand may be empty.
func (r *Resolver) ResolveCandidates(ctx context.Context, slot model.KitSlot, primaryBrand string) ([]Candidate, error) {
	tax, err := r.catalog.GetTaxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	return r.resolveCandidates(ctx, slot, tax.Keywords(slot.CategoryID, primaryBrand))
}

func (r *Resolver) resolveCandidates(ctx context.Context, slot model.KitSlot, keywords []string) ([]Candidate, error) {
	items, err := r.catalog.ListByCategory(ctx, slot.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("list slot %q candidates: %w", slot.SlotName, err)
	}
	return Rank(items, slot, keywords), nil
}

// Rank drops kit primaries and orders the rest: recommended before
// unrecommended, then by id. It never drops an item for not matching.
func Rank(items []model.EquipmentItem, slot model.KitSlot, keywords []string) []Candidate {
	pinned := make(map[int64]bool, len(slot.RecommendedIDs))
	for _, id := range slot.RecommendedIDs {
		pinned[id] = true
	}
	kws := normalizeKeywords(keywords)

	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		if it.IsKitPrimary {
			continue
		}
		out = append(out, Candidate{Item: it, Recommended: pinned[it.ID] || matches(it, kws)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Recommended != out[j].Recommended {
			return out[i].Recommended
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// matches is a case-insensitive substring test against brand, model name, or
// both together ("Zeiss" + "Supreme Prime 50" matches "zeiss supreme").
func matches(it model.EquipmentItem, kws []string) bool {
	if len(kws) == 0 {
		return false
	}
	full := strings.ToLower(strings.TrimSpace(strings.TrimSpace(it.Brand) + " " + it.Name))
	for _, k := range kws {
		if strings.Contains(full, k) {
			return true
		}
	}
	return false
}
