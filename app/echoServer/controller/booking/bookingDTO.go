package booking

type CreateBookingReq struct {
	EquipmentID int64  `json:"equipment_id" validate:"required,gt=0"`
	Quantity    int    `json:"quantity"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
}

type CreateKitBookingReq struct {
	PrimaryID    int64   `json:"primary_id" validate:"required,gt=0"`
	Quantity     int     `json:"quantity"`
	StartDate    string  `json:"start_date" validate:"required"`
	EndDate      string  `json:"end_date" validate:"required"`
	AccessoryIDs []int64 `json:"accessory_ids" validate:"omitempty,max=50,dive,gt=0"`
}
