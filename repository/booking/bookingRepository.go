// repository/booking/repo.go
package bookingrepo

import (
	"context"
	"fmt"
	"time"

	"gearrental/model"
	"gearrental/util/daterange"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo interface {
	// Reads for availability
	FetchBookings(ctx context.Context, equipmentID int64, asOf *time.Time) ([]model.ExistingBooking, error)
	FetchStock(ctx context.Context, equipmentIDs []int64) (map[int64]int, error)

	// Commit path, all inside the caller's transaction
	LockEquipmentForUpdate(ctx context.Context, tx pgx.Tx, equipmentID int64) (totalStock int, err error)
	ListActiveBookingsTx(ctx context.Context, tx pgx.Tx, equipmentIDs []int64) (map[int64][]model.ExistingBooking, error)
	InsertBooking(ctx context.Context, tx pgx.Tx, b *model.Booking) (int64, error)
	GetBookingOwnerAndStatus(ctx context.Context, tx pgx.Tx, bookingID int64) (ownerID int64, status model.BookingStatus, err error)
	MarkCanceled(ctx context.Context, tx pgx.Tx, bookingID int64) error

	// History & housekeeping
	ListMyBookings(ctx context.Context, userID int64) ([]model.Booking, error)
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db: db} }

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func activeStatuses() []string {
	out := make([]string, len(model.ActiveBookingStatuses))
	for i, s := range model.ActiveBookingStatuses {
		out[i] = string(s)
	}
	return out
}

func scanExisting(rows pgx.Rows) (int64, model.ExistingBooking, error) {
	var (
		id         int64
		start, end time.Time
		qty        int
	)
	if err := rows.Scan(&id, &start, &end, &qty); err != nil {
		return 0, model.ExistingBooking{}, err
	}
	return id, model.ExistingBooking{
		Range:    daterange.Range{Start: daterange.Day(start), End: daterange.Day(end)},
		Quantity: qty,
	}, nil
}

func listActive(ctx context.Context, q querier, equipmentIDs []int64, asOf *time.Time) (map[int64][]model.ExistingBooking, error) {
	// bookings that ended before asOf cannot overlap anything from asOf onwards
	const sql = `
		SELECT equipment_id, start_date, end_date, quantity
		FROM bookings
		WHERE equipment_id = ANY($1)
		AND status = ANY($2)
		AND ($3::date IS NULL OR end_date >= $3::date)
		ORDER BY equipment_id, start_date, id`
	rows, err := q.Query(ctx, sql, equipmentIDs, activeStatuses(), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]model.ExistingBooking, len(equipmentIDs))
	for _, id := range equipmentIDs {
		out[id] = []model.ExistingBooking{}
	}
	for rows.Next() {
		eqID, b, err := scanExisting(rows)
		if err != nil {
			return nil, err
		}
		out[eqID] = append(out[eqID], b)
	}
	return out, rows.Err()
}

// Reads for availability

func (r *repo) FetchBookings(ctx context.Context, equipmentID int64, asOf *time.Time) ([]model.ExistingBooking, error) {
	m, err := listActive(ctx, r.db, []int64{equipmentID}, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings for %d: %w", equipmentID, err)
	}
	return m[equipmentID], nil
}

// FetchStock reads total_stock straight from the table; catalog reads may be
// cached but availability must not be.
func (r *repo) FetchStock(ctx context.Context, equipmentIDs []int64) (map[int64]int, error) {
	const q = `SELECT id, total_stock FROM equipment WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, q, equipmentIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch stock: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int, len(equipmentIDs))
	for rows.Next() {
		var (
			id    int64
			stock int
		)
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, err
		}
		out[id] = stock
	}
	return out, rows.Err()
}

// Commit path

func (r *repo) LockEquipmentForUpdate(ctx context.Context, tx pgx.Tx, equipmentID int64) (int, error) {
	// Serializes concurrent checkouts of the same item until commit.
	const q = `
		SELECT total_stock
		FROM equipment
		WHERE id = $1
		FOR UPDATE`
	var stock int
	err := tx.QueryRow(ctx, q, equipmentID).Scan(&stock)
	return stock, err
}

func (r *repo) ListActiveBookingsTx(ctx context.Context, tx pgx.Tx, equipmentIDs []int64) (map[int64][]model.ExistingBooking, error) {
	return listActive(ctx, tx, equipmentIDs, nil)
}

func (r *repo) InsertBooking(ctx context.Context, tx pgx.Tx, b *model.Booking) (int64, error) {
	const q = `
		INSERT INTO bookings (user_id, equipment_id, quantity, start_date, end_date, status, group_id, hold_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := tx.QueryRow(ctx, q,
		b.UserID, b.EquipmentID, b.Quantity, b.StartDate, b.EndDate, string(b.Status), b.GroupID, b.HoldUntil,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

func (r *repo) GetBookingOwnerAndStatus(ctx context.Context, tx pgx.Tx, bookingID int64) (int64, model.BookingStatus, error) {
	const q = `
		SELECT user_id, status
		FROM bookings
		WHERE id = $1
		FOR UPDATE`
	var (
		uid    int64
		status string
	)
	err := tx.QueryRow(ctx, q, bookingID).Scan(&uid, &status)
	return uid, model.BookingStatus(status), err
}

func (r *repo) MarkCanceled(ctx context.Context, tx pgx.Tx, bookingID int64) error {
	const q = `
		UPDATE bookings
		SET status = 'CANCELED',
			canceled_at = NOW()
		WHERE id = $1`
	_, err := tx.Exec(ctx, q, bookingID)
	return err
}

// History & housekeeping

func (r *repo) ListMyBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	const q = `
		SELECT id, user_id, equipment_id, quantity, start_date, end_date,
			status, group_id::text, hold_until, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		var (
			b      model.Booking
			status string
		)
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.EquipmentID, &b.Quantity, &b.StartDate, &b.EndDate,
			&status, &b.GroupID, &b.HoldUntil, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.Status = model.BookingStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE bookings
		SET status = 'EXPIRED'
		WHERE status = 'PENDING'
		AND hold_until IS NOT NULL
		AND hold_until < $1`
	tag, err := r.db.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
