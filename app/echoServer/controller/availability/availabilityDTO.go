package availability

import "gearrental/model"

type CheckResp struct {
	model.AvailabilityResult
	Message string `json:"message,omitempty"`
}

type KitResp struct {
	TemplateID *int64               `json:"template_id,omitempty"`
	Primary    CheckResp            `json:"primary"`
	Slots      []model.ResolvedSlot `json:"slots"`
	Notice     string               `json:"notice,omitempty"`
}
