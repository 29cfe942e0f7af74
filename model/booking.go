// model/booking.go
package model

import (
	"time"

	"gearrental/util/daterange"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingActive    BookingStatus = "ACTIVE"
	BookingReturned  BookingStatus = "RETURNED"
	BookingCanceled  BookingStatus = "CANCELED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// ActiveBookingStatuses are the statuses that hold stock.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingActive}

// ExistingBooking is what the availability engine reads for one item.
type ExistingBooking struct {
	Range    daterange.Range `json:"range"`
	Quantity int             `json:"quantity"`
}

type Booking struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	EquipmentID int64         `json:"equipment_id"`
	Quantity    int           `json:"quantity"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	Status      BookingStatus `json:"status"`
	GroupID     *string       `json:"group_id,omitempty"`
	HoldUntil   *time.Time    `json:"hold_until,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
