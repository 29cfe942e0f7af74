package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gearrental/model"
	"gearrental/service/availability"
	"gearrental/util/daterange"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// errors used by controllers

type ErrCode string

const (
	ErrNoStock       ErrCode = "NO_STOCK"
	ErrItemNotFound  ErrCode = "ITEM_NOT_FOUND"
	ErrPastDate      ErrCode = "PAST_DATE"
	ErrNotOwner      ErrCode = "NOT_OWNER"
	ErrNotCancelable ErrCode = "NOT_CANCELABLE"
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrBadQuantity   ErrCode = "INVALID_QUANTITY"
	ErrBadRange      ErrCode = "INVALID_RANGE"
	ErrConflict      ErrCode = "CONFLICT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// ShortfallError reports which item ran out and how many units were left.
type ShortfallError struct {
	ItemID    int64
	Requested int
	Available int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("item %d: requested %d, only %d available", e.ItemID, e.Requested, e.Available)
}
func (e *ShortfallError) Code() ErrCode { return ErrNoStock }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// mapPgErr turns constraint and lock failures raised by postgres into coded
// errors. Anything else is returned unchanged.
func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.ForeignKeyViolation:
		return makeErr(ErrItemNotFound)
	case pgerrcode.CheckViolation:
		cn := strings.ToLower(pgErr.ConstraintName)
		if strings.Contains(cn, "date") || strings.Contains(cn, "range") {
			return makeErr(ErrBadRange)
		}
		return makeErr(ErrBadQuantity)
	case pgerrcode.DeadlockDetected, pgerrcode.SerializationFailure, pgerrcode.LockNotAvailable:
		return makeErr(ErrConflict)
	}
	return err
}

type Repo interface {
	LockEquipmentForUpdate(ctx context.Context, tx pgx.Tx, equipmentID int64) (int, error)
	ListActiveBookingsTx(ctx context.Context, tx pgx.Tx, equipmentIDs []int64) (map[int64][]model.ExistingBooking, error)
	InsertBooking(ctx context.Context, tx pgx.Tx, b *model.Booking) (int64, error)
	GetBookingOwnerAndStatus(ctx context.Context, tx pgx.Tx, bookingID int64) (int64, model.BookingStatus, error)
	MarkCanceled(ctx context.Context, tx pgx.Tx, bookingID int64) error

	ListMyBookings(ctx context.Context, userID int64) ([]model.Booking, error)
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// dto

type ReserveReq struct {
	EquipmentID int64
	Quantity    int
	Range       daterange.Range
}

type KitReserveReq struct {
	PrimaryID    int64
	Quantity     int
	Range        daterange.Range
	AccessoryIDs []int64
}

type Reserved struct {
	GroupID  *string
	Bookings []model.Booking
}

type Service interface {
	// Reserve re-checks availability and writes a PENDING booking atomically.
	Reserve(ctx context.Context, userID int64, req ReserveReq) (*model.Booking, error)

	// ReserveKit books the primary item and one unit of each accessory as one
	// group. Either every row is written or none is.
	ReserveKit(ctx context.Context, userID int64, req KitReserveReq) (*Reserved, error)

	// Cancel releases a PENDING or CONFIRMED booking owned by userID.
	Cancel(ctx context.Context, userID, bookingID int64) error

	MyBookings(ctx context.Context, userID int64) ([]model.Booking, error)
}

// ----- Service implementation -----

type service struct {
	db      TxBeginner
	r       Repo
	holdTTL time.Duration
	now     func() time.Time
}

func New(db TxBeginner, r Repo, holdTTL time.Duration) Service {
	return &service{db: db, r: r, holdTTL: holdTTL, now: time.Now}
}

type line struct {
	itemID   int64
	quantity int
}

func (s *service) validate(qty int, r daterange.Range) error {
	if err := availability.Validate(qty, r); err != nil {
		return err
	}
	if errors.Is(daterange.ValidateRental(r, s.now()), daterange.ErrInPast) {
		return makeErr(ErrPastDate)
	}
	return nil
}

func (s *service) Reserve(ctx context.Context, userID int64, req ReserveReq) (*model.Booking, error) {
	if err := s.validate(req.Quantity, req.Range); err != nil {
		return nil, err
	}
	out, err := s.commit(ctx, userID, req.Range, []line{{req.EquipmentID, req.Quantity}}, nil)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) ReserveKit(ctx context.Context, userID int64, req KitReserveReq) (*Reserved, error) {
	if err := s.validate(req.Quantity, req.Range); err != nil {
		return nil, err
	}
	lines := make([]line, 0, len(req.AccessoryIDs)+1)
	lines = append(lines, line{req.PrimaryID, req.Quantity})
	for _, id := range req.AccessoryIDs {
		lines = append(lines, line{id, model.AccessoryQuantity})
	}
	group := uuid.NewString()
	out, err := s.commit(ctx, userID, req.Range, lines, &group)
	if err != nil {
		return nil, err
	}
	return &Reserved{GroupID: &group, Bookings: out}, nil
}

// commit locks every item row in ascending id order, re-checks availability
// against bookings read inside the same transaction, then inserts.
func (s *service) commit(ctx context.Context, userID int64, r daterange.Range, lines []line, groupID *string) (_ []model.Booking, err error) {
	want := map[int64]int{}
	for _, l := range lines {
		want[l.itemID] += l.quantity
	}
	ids := make([]int64, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			err = mapPgErr(err)
		}
	}()

	stock := make(map[int64]int, len(ids))
	for _, id := range ids {
		n, lerr := s.r.LockEquipmentForUpdate(ctx, tx, id)
		if lerr != nil {
			if errors.Is(lerr, pgx.ErrNoRows) {
				err = makeErr(ErrItemNotFound)
				return nil, err
			}
			err = lerr
			return nil, err
		}
		stock[id] = n
	}

	existing, err := s.r.ListActiveBookingsTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		res, cerr := availability.Check(stock[id], want[id], r, existing[id])
		if cerr != nil {
			err = cerr
			return nil, err
		}
		if !res.Available {
			err = &ShortfallError{ItemID: id, Requested: want[id], Available: res.AvailableQuantity}
			return nil, err
		}
	}

	hold := s.now().UTC().Add(s.holdTTL)
	out := make([]model.Booking, 0, len(lines))
	for _, l := range lines {
		b := model.Booking{
			UserID:      userID,
			EquipmentID: l.itemID,
			Quantity:    l.quantity,
			StartDate:   r.Start,
			EndDate:     r.End,
			Status:      model.BookingPending,
			GroupID:     groupID,
			HoldUntil:   &hold,
		}
		if _, err = s.r.InsertBooking(ctx, tx, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Cancel(ctx context.Context, userID, bookingID int64) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			err = mapPgErr(err)
		}
	}()

	owner, status, err := s.r.GetBookingOwnerAndStatus(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = makeErr(ErrNotFound)
		}
		return err
	}
	if owner != userID {
		err = makeErr(ErrNotOwner)
		return err
	}
	if status != model.BookingPending && status != model.BookingConfirmed {
		err = makeErr(ErrNotCancelable)
		return err
	}
	if err = s.r.MarkCanceled(ctx, tx, bookingID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *service) MyBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	return s.r.ListMyBookings(ctx, userID)
}
