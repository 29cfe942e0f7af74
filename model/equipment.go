// model/equipment.go
package model

import "strings"

type EquipmentItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CategoryID   int64  `json:"category_id"`
	Brand        string `json:"brand"`
	TotalStock   int    `json:"total_stock"`
	IsKitPrimary bool   `json:"is_kit_primary"`
}

type Category struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// CategoryTaxonomy drives recommendation ordering only. BrandKeywords is keyed
// by primary brand, then category id.
type CategoryTaxonomy struct {
	Categories    map[int64]Category            `json:"categories"`
	BrandKeywords map[string]map[int64][]string `json:"brand_keywords,omitempty"`
}

// Keywords returns the recommendation keywords for a category, including the
// ones tied to the kit's primary brand.
func (t CategoryTaxonomy) Keywords(categoryID int64, brand string) []string {
	var out []string
	if c, ok := t.Categories[categoryID]; ok {
		out = append(out, c.Keywords...)
	}
	if brand == "" || t.BrandKeywords == nil {
		return out
	}
	for b, byCat := range t.BrandKeywords {
		if strings.EqualFold(strings.TrimSpace(b), strings.TrimSpace(brand)) {
			out = append(out, byCat[categoryID]...)
		}
	}
	return out
}
