// model/kit.go
package model

// AccessoryQuantity is the quantity every accessory slot is checked and
// booked at.
const AccessoryQuantity = 1

type KitSlot struct {
	SlotName           string  `json:"slot_name"`
	CategoryID         int64   `json:"category_id"`
	IsMandatoryDefault bool    `json:"is_mandatory_default"`
	RecommendedIDs     []int64 `json:"recommended_ids,omitempty"`
}

type KitTemplate struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	PrimaryItemID int64     `json:"primary_item_id"`
	Slots         []KitSlot `json:"slots"`
}

type AvailabilityResult struct {
	ItemID            int64 `json:"item_id"`
	RequestedQuantity int   `json:"requested_quantity"`
	AvailableQuantity int   `json:"available_quantity"`
	Available         bool  `json:"available"`
}

type KitCandidate struct {
	AvailabilityResult
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Recommended bool   `json:"recommended"`
}

type ResolvedSlot struct {
	SlotName   string         `json:"slot_name"`
	CategoryID int64          `json:"category_id"`
	Mandatory  bool           `json:"mandatory"`
	Candidates []KitCandidate `json:"candidates"`
}

// ResolvedKit is built per request and never cached.
type ResolvedKit struct {
	TemplateID *int64             `json:"template_id,omitempty"`
	Primary    AvailabilityResult `json:"primary"`
	Slots      []ResolvedSlot     `json:"slots"`
}
