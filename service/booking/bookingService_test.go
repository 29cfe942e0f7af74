// service/booking/booking_service_test.go
package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gearrental/model"
	"gearrental/service/availability"
	"gearrental/util/daterange"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// memTx stands in for a pgx transaction: it holds row locks and buffers
// inserts until Commit.
type memTx struct {
	pgx.Tx
	store    *memStore
	locks    []*sync.Mutex
	inserts  []model.Booking
	canceled []int64
	done     bool
}

func (t *memTx) release() {
	for _, l := range t.locks {
		l.Unlock()
	}
	t.locks = nil
	t.done = true
}

func (t *memTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	t.store.bookings = append(t.store.bookings, t.inserts...)
	for _, id := range t.canceled {
		for i := range t.store.bookings {
			if t.store.bookings[i].ID == id {
				t.store.bookings[i].Status = model.BookingCanceled
			}
		}
	}
	t.store.commits++
	t.store.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.store.mu.Lock()
	t.store.rollbacks++
	t.store.mu.Unlock()
	t.release()
	return nil
}

type memStore struct {
	mu        sync.Mutex
	rowLocks  map[int64]*sync.Mutex
	stock     map[int64]int
	bookings  []model.Booking
	nextID    int64
	commits   int
	rollbacks int
	insertErr error
	lockErr   error
	cancelErr error
}

func newStore(stock map[int64]int) *memStore {
	s := &memStore{rowLocks: map[int64]*sync.Mutex{}, stock: stock}
	for id := range stock {
		s.rowLocks[id] = &sync.Mutex{}
	}
	return s
}

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{store: s}, nil
}

func (s *memStore) LockEquipmentForUpdate(ctx context.Context, tx pgx.Tx, id int64) (int, error) {
	if s.lockErr != nil {
		return 0, s.lockErr
	}
	l, ok := s.rowLocks[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	l.Lock()
	mt := tx.(*memTx)
	mt.locks = append(mt.locks, l)
	return s.stock[id], nil
}

func (s *memStore) ListActiveBookingsTx(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64][]model.ExistingBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64][]model.ExistingBooking{}
	for _, b := range s.bookings {
		if b.Status == model.BookingCanceled || b.Status == model.BookingExpired {
			continue
		}
		out[b.EquipmentID] = append(out[b.EquipmentID], model.ExistingBooking{
			Range:    daterange.Range{Start: b.StartDate, End: b.EndDate},
			Quantity: b.Quantity,
		})
	}
	return out, nil
}

func (s *memStore) InsertBooking(ctx context.Context, tx pgx.Tx, b *model.Booking) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.mu.Lock()
	s.nextID++
	b.ID = s.nextID
	s.mu.Unlock()
	mt := tx.(*memTx)
	mt.inserts = append(mt.inserts, *b)
	return b.ID, nil
}

func (s *memStore) GetBookingOwnerAndStatus(ctx context.Context, tx pgx.Tx, id int64) (int64, model.BookingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ID == id {
			return b.UserID, b.Status, nil
		}
	}
	return 0, "", pgx.ErrNoRows
}

func (s *memStore) MarkCanceled(ctx context.Context, tx pgx.Tx, id int64) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	mt := tx.(*memTx)
	mt.canceled = append(mt.canceled, id)
	return nil
}

func (s *memStore) ListMyBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.bookings {
		b := &s.bookings[i]
		if b.Status == model.BookingPending && b.HoldUntil != nil && b.HoldUntil.Before(now) {
			b.Status = model.BookingExpired
			n++
		}
	}
	return n, nil
}

func (s *memStore) booked(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.EquipmentID == id && b.Status != model.BookingCanceled && b.Status != model.BookingExpired {
			n += b.Quantity
		}
	}
	return n
}

func futureRange(t *testing.T, fromNow, days int) daterange.Range {
	t.Helper()
	start := time.Now().AddDate(0, 0, fromNow)
	r, err := daterange.New(start, start.AddDate(0, 0, days))
	require.NoError(t, err)
	return r
}

func newSvc(st *memStore) *service {
	return New(st, st, time.Hour).(*service)
}

func TestReserve_Success(t *testing.T) {
	st := newStore(map[int64]int{1: 3})
	svc := newSvc(st)

	b, err := svc.Reserve(context.Background(), 42, ReserveReq{EquipmentID: 1, Quantity: 2, Range: futureRange(t, 3, 2)})
	require.NoError(t, err)
	require.Equal(t, int64(42), b.UserID)
	require.Equal(t, model.BookingPending, b.Status)
	require.NotNil(t, b.HoldUntil)
	require.Nil(t, b.GroupID)
	require.Equal(t, 2, st.booked(1))
	require.Equal(t, 1, st.commits)
}

func TestReserve_NoStock(t *testing.T) {
	st := newStore(map[int64]int{1: 3})
	svc := newSvc(st)
	r := futureRange(t, 3, 2)

	_, err := svc.Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 2, Range: r})
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), 2, ReserveReq{EquipmentID: 1, Quantity: 2, Range: r})
	require.Equal(t, ErrNoStock, Code(err))
	var sf *ShortfallError
	require.True(t, errors.As(err, &sf))
	require.Equal(t, 1, sf.Available)
	require.Equal(t, 1, st.rollbacks)
	require.Equal(t, 2, st.booked(1))
}

func TestReserve_SameDayHandoverConflicts(t *testing.T) {
	st := newStore(map[int64]int{1: 1})
	svc := newSvc(st)
	first := futureRange(t, 5, 3)

	_, err := svc.Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 1, Range: first})
	require.NoError(t, err)

	touching := daterange.Range{Start: first.End, End: first.End.AddDate(0, 0, 2)}
	_, err = svc.Reserve(context.Background(), 2, ReserveReq{EquipmentID: 1, Quantity: 1, Range: touching})
	require.Equal(t, ErrNoStock, Code(err))

	nextDay := daterange.Range{Start: first.End.AddDate(0, 0, 1), End: first.End.AddDate(0, 0, 2)}
	_, err = svc.Reserve(context.Background(), 2, ReserveReq{EquipmentID: 1, Quantity: 1, Range: nextDay})
	require.NoError(t, err)
}

func TestReserve_Validation(t *testing.T) {
	st := newStore(map[int64]int{1: 3})
	svc := newSvc(st)

	_, err := svc.Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 0, Range: futureRange(t, 1, 1)})
	require.Equal(t, availability.ErrInvalidQuantity, availability.Code(err))

	r := futureRange(t, 1, 1)
	_, err = svc.Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 1, Range: daterange.Range{Start: r.End, End: r.Start}})
	require.Equal(t, availability.ErrInvalidRange, availability.Code(err))

	_, err = svc.Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 1, Range: futureRange(t, -3, 5)})
	require.Equal(t, ErrPastDate, Code(err))

	_, err = svc.Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 1, Range: futureRange(t, 0, 0)})
	require.NoError(t, err, "same-day rental is allowed")

	require.Equal(t, 1, st.commits)
}

func TestReserve_UnknownItem(t *testing.T) {
	st := newStore(map[int64]int{1: 3})
	_, err := newSvc(st).Reserve(context.Background(), 1, ReserveReq{EquipmentID: 9, Quantity: 1, Range: futureRange(t, 1, 1)})
	require.Equal(t, ErrItemNotFound, Code(err))
	require.Equal(t, 1, st.rollbacks)
}

func TestReserve_InsertErrorRollsBack(t *testing.T) {
	st := newStore(map[int64]int{1: 3})
	st.insertErr = errors.New("insert failed")
	_, err := newSvc(st).Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 1, Range: futureRange(t, 1, 1)})
	require.Error(t, err)
	require.Equal(t, 1, st.rollbacks)
	require.Equal(t, 0, st.booked(1))
}

func TestReserve_MapsPostgresErrors(t *testing.T) {
	cases := []struct {
		name    string
		lockErr error
		insErr  error
		want    ErrCode
	}{
		{"fk violation", nil, &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "bookings_equipment_id_fkey"}, ErrItemNotFound},
		{"quantity check", nil, &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "bookings_quantity_check"}, ErrBadQuantity},
		{"date check", nil, &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "bookings_date_order_check"}, ErrBadRange},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, nil, ErrConflict},
		{"lock timeout", &pgconn.PgError{Code: pgerrcode.LockNotAvailable}, nil, ErrConflict},
		{"serialization", nil, &pgconn.PgError{Code: pgerrcode.SerializationFailure}, ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newStore(map[int64]int{1: 3})
			st.lockErr, st.insertErr = tc.lockErr, tc.insErr
			_, err := newSvc(st).Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 1, Range: futureRange(t, 1, 1)})
			require.Equal(t, tc.want, Code(err))
			require.Equal(t, 1, st.rollbacks)
			require.Equal(t, 0, st.booked(1))
		})
	}
}

func TestReserve_UnknownPostgresErrorPassesThrough(t *testing.T) {
	st := newStore(map[int64]int{1: 3})
	pgErr := &pgconn.PgError{Code: pgerrcode.DiskFull}
	st.insertErr = pgErr
	_, err := newSvc(st).Reserve(context.Background(), 1, ReserveReq{EquipmentID: 1, Quantity: 1, Range: futureRange(t, 1, 1)})
	require.ErrorIs(t, err, pgErr)
	require.Equal(t, ErrCode(""), Code(err))
}

func TestReserve_ConcurrentCheckoutNeverOverbooks(t *testing.T) {
	st := newStore(map[int64]int{1: 5})
	svc := newSvc(st)
	r := futureRange(t, 2, 4)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			if _, err := svc.Reserve(context.Background(), uid, ReserveReq{EquipmentID: 1, Quantity: 1, Range: r}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(int64(i))
	}
	wg.Wait()

	require.Equal(t, 5, ok)
	require.Equal(t, 5, st.booked(1))
}

func TestReserveKit_AllOrNothing(t *testing.T) {
	st := newStore(map[int64]int{10: 2, 20: 1, 30: 1})
	svc := newSvc(st)
	r := futureRange(t, 2, 2)

	res, err := svc.ReserveKit(context.Background(), 7, KitReserveReq{PrimaryID: 10, Quantity: 1, Range: r, AccessoryIDs: []int64{30, 20}})
	require.NoError(t, err)
	require.NotNil(t, res.GroupID)
	require.Len(t, res.Bookings, 3)
	require.Equal(t, int64(10), res.Bookings[0].EquipmentID)
	require.Equal(t, int64(30), res.Bookings[1].EquipmentID)
	for _, b := range res.Bookings {
		require.Equal(t, *res.GroupID, *b.GroupID)
	}
	require.Equal(t, 1, res.Bookings[1].Quantity)

	// lens 20 is gone now, so the second kit must not take the camera either
	_, err = svc.ReserveKit(context.Background(), 8, KitReserveReq{PrimaryID: 10, Quantity: 1, Range: r, AccessoryIDs: []int64{20}})
	require.Equal(t, ErrNoStock, Code(err))
	require.Equal(t, 1, st.booked(10))
}

func TestReserveKit_DuplicateAccessoriesAggregate(t *testing.T) {
	st := newStore(map[int64]int{10: 1, 20: 1})
	_, err := newSvc(st).ReserveKit(context.Background(), 7, KitReserveReq{PrimaryID: 10, Quantity: 1, Range: futureRange(t, 1, 1), AccessoryIDs: []int64{20, 20}})
	require.Equal(t, ErrNoStock, Code(err))
	require.Equal(t, 0, st.booked(20))
}

func TestCancel(t *testing.T) {
	st := newStore(map[int64]int{1: 1})
	svc := newSvc(st)
	r := futureRange(t, 1, 1)

	b, err := svc.Reserve(context.Background(), 5, ReserveReq{EquipmentID: 1, Quantity: 1, Range: r})
	require.NoError(t, err)

	require.Equal(t, ErrNotOwner, Code(svc.Cancel(context.Background(), 6, b.ID)))
	require.Equal(t, ErrNotFound, Code(svc.Cancel(context.Background(), 5, 999)))
	require.NoError(t, svc.Cancel(context.Background(), 5, b.ID))
	require.Equal(t, ErrNotCancelable, Code(svc.Cancel(context.Background(), 5, b.ID)))

	// freed stock is bookable again
	_, err = svc.Reserve(context.Background(), 6, ReserveReq{EquipmentID: 1, Quantity: 1, Range: r})
	require.NoError(t, err)
}

func TestCancel_LockFailureIsConflict(t *testing.T) {
	st := newStore(map[int64]int{1: 1})
	svc := newSvc(st)
	b, err := svc.Reserve(context.Background(), 5, ReserveReq{EquipmentID: 1, Quantity: 1, Range: futureRange(t, 1, 1)})
	require.NoError(t, err)

	st.cancelErr = &pgconn.PgError{Code: pgerrcode.LockNotAvailable}
	require.Equal(t, ErrConflict, Code(svc.Cancel(context.Background(), 5, b.ID)))
	require.Equal(t, 1, st.rollbacks)
	require.Equal(t, 1, st.booked(1))
}

func TestCleaner_ReleasesExpiredHolds(t *testing.T) {
	st := newStore(map[int64]int{1: 1})
	svc := New(st, st, -time.Minute).(*service)
	r := futureRange(t, 1, 1)

	_, err := svc.Reserve(context.Background(), 5, ReserveReq{EquipmentID: 1, Quantity: 1, Range: r})
	require.NoError(t, err)

	n, err := NewCleaner(st).ReleaseExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, 0, st.booked(1))

	mine, err := svc.MyBookings(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, model.BookingExpired, mine[0].Status)
}
