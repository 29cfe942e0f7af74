// Package catalogsvc is a read-only view over equipment records and the
// category taxonomy. It never writes to the record store.
package catalogsvc

import (
	"context"
	"sort"

	"gearrental/model"
)

type Repo interface {
	FetchEquipmentItem(ctx context.Context, id int64) (*model.EquipmentItem, error)
	FetchEquipmentByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error)
	FetchTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error)
}

type Service interface {
	// GetItem returns nil, nil when no such item exists.
	GetItem(ctx context.Context, id int64) (*model.EquipmentItem, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error)
	GetTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) GetItem(ctx context.Context, id int64) (*model.EquipmentItem, error) {
	if id <= 0 {
		return nil, nil
	}
	return s.r.FetchEquipmentItem(ctx, id)
}

func (s *service) ListByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error) {
	items, err := s.r.FetchEquipmentByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.EquipmentItem{}
	}
	return items, nil
}

func (s *service) GetTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error) {
	return s.r.FetchTaxonomy(ctx)
}

// ListCategories flattens the taxonomy in id order.
func (s *service) ListCategories(ctx context.Context) ([]model.Category, error) {
	tax, err := s.r.FetchTaxonomy(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(tax.Categories))
	for _, c := range tax.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
