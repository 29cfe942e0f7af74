// repository/equipment/repo.go
package equipmentrepo

import (
	"context"
	"errors"
	"fmt"

	"gearrental/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo interface {
	FetchEquipmentItem(ctx context.Context, id int64) (*model.EquipmentItem, error)
	FetchEquipmentByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error)
	FetchTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

const itemCols = `
	e.id, e.name, e.category_id, e.brand, e.total_stock,
	EXISTS (SELECT 1 FROM kit_templates kt WHERE kt.primary_item_id = e.id) AS is_kit_primary`

func scanItem(row pgx.Row, it *model.EquipmentItem) error {
	return row.Scan(&it.ID, &it.Name, &it.CategoryID, &it.Brand, &it.TotalStock, &it.IsKitPrimary)
}

// FetchEquipmentItem returns nil, nil when the item does not exist.
func (r *repo) FetchEquipmentItem(ctx context.Context, id int64) (*model.EquipmentItem, error) {
	q := `
		SELECT` + itemCols + `
		FROM equipment e
		WHERE e.id = $1
		AND e.visible`
	var it model.EquipmentItem
	if err := scanItem(r.db.QueryRow(ctx, q, id), &it); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch equipment %d: %w", id, err)
	}
	return &it, nil
}

func (r *repo) FetchEquipmentByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error) {
	q := `
		SELECT` + itemCols + `
		FROM equipment e
		WHERE e.category_id = $1
		AND e.visible
		ORDER BY e.id`
	rows, err := r.db.Query(ctx, q, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category %d: %w", categoryID, err)
	}
	defer rows.Close()

	out := []model.EquipmentItem{}
	for rows.Next() {
		var it model.EquipmentItem
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) FetchTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error) {
	tax := model.CategoryTaxonomy{
		Categories:    map[int64]model.Category{},
		BrandKeywords: map[string]map[int64][]string{},
	}

	const qc = `
		SELECT id, name, COALESCE(recommend_keywords, '{}')
		FROM categories
		ORDER BY id`
	rows, err := r.db.Query(ctx, qc)
	if err != nil {
		return tax, fmt.Errorf("list categories: %w", err)
	}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Keywords); err != nil {
			rows.Close()
			return tax, err
		}
		tax.Categories[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return tax, err
	}

	const qb = `
		SELECT brand, category_id, keywords
		FROM brand_recommendations
		ORDER BY brand, category_id`
	rows, err = r.db.Query(ctx, qb)
	if err != nil {
		return tax, fmt.Errorf("list brand recommendations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			brand string
			catID int64
			kws   []string
		)
		if err := rows.Scan(&brand, &catID, &kws); err != nil {
			return tax, err
		}
		if tax.BrandKeywords[brand] == nil {
			tax.BrandKeywords[brand] = map[int64][]string{}
		}
		tax.BrandKeywords[brand][catID] = kws
	}
	return tax, rows.Err()
}
