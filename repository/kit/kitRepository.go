// repository/kit/repo.go
package kitrepo

import (
	"context"
	"errors"
	"fmt"

	"gearrental/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo interface {
	FetchKitTemplate(ctx context.Context, primaryItemID int64) (*model.KitTemplate, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

// FetchKitTemplate returns nil, nil when the item has no template.
func (r *repo) FetchKitTemplate(ctx context.Context, primaryItemID int64) (*model.KitTemplate, error) {
	const qt = `
		SELECT id, name, primary_item_id
		FROM kit_templates
		WHERE primary_item_id = $1
		ORDER BY id
		LIMIT 1`
	var t model.KitTemplate
	err := r.db.QueryRow(ctx, qt, primaryItemID).Scan(&t.ID, &t.Name, &t.PrimaryItemID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch kit template for %d: %w", primaryItemID, err)
	}

	// recommended_ids is the jsonb list pinned by catalog admins; NULL on
	// slots that rely on keyword ranking alone.
	const qs = `
		SELECT slot_name, category_id, is_mandatory_default, COALESCE(recommended_ids, '[]'::jsonb)
		FROM kit_slots
		WHERE template_id = $1
		ORDER BY display_order, id`
	rows, err := r.db.Query(ctx, qs, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list kit slots for template %d: %w", t.ID, err)
	}
	defer rows.Close()

	t.Slots = []model.KitSlot{}
	for rows.Next() {
		var s model.KitSlot
		if err := rows.Scan(&s.SlotName, &s.CategoryID, &s.IsMandatoryDefault, &s.RecommendedIDs); err != nil {
			return nil, err
		}
		t.Slots = append(t.Slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &t, nil
}
