// Package availability computes remaining stock for one equipment item over a
// date range. Every input is supplied by the caller; nothing here reads a store,
// so the functions are safe to call concurrently.
package availability

import (
	"errors"
	"fmt"

	"gearrental/model"
	"gearrental/util/daterange"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidRange    ErrCode = "INVALID_RANGE"
	ErrInvalidQuantity ErrCode = "INVALID_QUANTITY"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string { return string(e.code) + ": " + e.msg }
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode, format string, args ...any) error {
	return codedError{code: c, msg: fmt.Sprintf(format, args...)}
}

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	c := Code(err)
	return c == ErrInvalidRange || c == ErrInvalidQuantity
}

// AvailableQuantity subtracts every overlapping booking from totalStock and
// floors the result at zero. Negative stock counts as none; bookings with a
// non-positive quantity hold nothing.
func AvailableQuantity(totalStock int, bookings []model.ExistingBooking, r daterange.Range) int {
	if totalStock < 0 {
		totalStock = 0
	}
	reserved := 0
	for _, b := range bookings {
		if b.Quantity <= 0 || !daterange.Overlaps(b.Range, r) {
			continue
		}
		reserved += b.Quantity
	}
	return max(0, totalStock-reserved)
}

// Check validates the request and reports whether requested units are free
// for the whole range. Exactly enough stock counts as available.
func Check(totalStock, requested int, r daterange.Range, bookings []model.ExistingBooking) (model.AvailabilityResult, error) {
	if err := Validate(requested, r); err != nil {
		return model.AvailabilityResult{}, err
	}
	avail := AvailableQuantity(totalStock, bookings, r)
	return model.AvailabilityResult{
		RequestedQuantity: requested,
		AvailableQuantity: avail,
		Available:         avail >= requested,
	}, nil
}

// Validate applies the request checks of Check without computing anything.
func Validate(requested int, r daterange.Range) error {
	if requested <= 0 {
		return makeErr(ErrInvalidQuantity, "quantity must be positive, got %d", requested)
	}
	if !daterange.IsValid(r) {
		return makeErr(ErrInvalidRange, "end date must be on or after start date")
	}
	return nil
}

func CheckItem(item model.EquipmentItem, requested int, r daterange.Range, bookings []model.ExistingBooking) (model.AvailabilityResult, error) {
	res, err := Check(item.TotalStock, requested, r, bookings)
	if err != nil {
		return res, err
	}
	res.ItemID = item.ID
	return res, nil
}

// Message is the shortfall text shown to customers; empty when available.
func Message(res model.AvailabilityResult) string {
	if res.Available {
		return ""
	}
	return fmt.Sprintf("Only %d units available for this period", res.AvailableQuantity)
}
