package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ticketbooking/internal/events"
	"ticketbooking/internal/ledger"
	"ticketbooking/internal/shared/database"
	"ticketbooking/pkg/cache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// sqlTxRunner mimics the database-backed runner: fn observes a context
// carrying a transaction, like database.DB.WithTx provides.
type sqlTxRunner struct{}

func (sqlTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(database.NewTxContext(ctx, &gorm.DB{}))
}

// releaseRecordingLedger counts compensating releases.
type releaseRecordingLedger struct {
	*ledger.MemoryLedger
	releases int
}

func (l *releaseRecordingLedger) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	l.releases++
	return l.MemoryLedger.Release(ctx, eventID, quantity)
}

type fakeEventResolver struct {
	events map[uuid.UUID]*events.Event
}

func (f *fakeEventResolver) GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	return ev, nil
}

type fakeStore struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*Booking
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[uuid.UUID]*Booking)}
}

func (f *fakeStore) Insert(ctx context.Context, booking *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	booking.ID = uuid.New()
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.EventID == eventID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAll(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return ErrBookingNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

// brokenReleaseLedger fails the compensating release; used to drive
// the ledger-inconsistency escalation path.
type brokenReleaseLedger struct {
	*ledger.MemoryLedger
	releaseErr error
}

func (l *brokenReleaseLedger) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	return l.releaseErr
}

// stubLedger returns canned errors without any bookkeeping.
type stubLedger struct {
	reserveErr error
}

func (l *stubLedger) TryReserve(ctx context.Context, eventID uuid.UUID, quantity int) error {
	return l.reserveErr
}

func (l *stubLedger) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	if p, ok := dest.(*string); ok {
		*p = val
	}
	return nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	return ok
}

func (f *fakeCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	return cache.ErrCacheMiss
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }

type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []*Booking
	failed    []OutcomeReason
}

func (f *fakeNotifier) BookingConfirmed(ctx context.Context, booking *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, booking)
	return nil
}

func (f *fakeNotifier) BookingFailed(ctx context.Context, req ReserveRequest, reason OutcomeReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, reason)
	return nil
}

type testFixture struct {
	eventID  uuid.UUID
	resolver *fakeEventResolver
	ledger   *ledger.MemoryLedger
	store    *fakeStore
}

func newFixture(totalSeats int, basePrice string) *testFixture {
	eventID := uuid.New()
	price, _ := decimal.NewFromString(basePrice)

	resolver := &fakeEventResolver{events: map[uuid.UUID]*events.Event{
		eventID: {
			ID:             eventID,
			Name:           "Test Event",
			TotalSeats:     totalSeats,
			AvailableSeats: totalSeats,
			BasePrice:      price,
		},
	}}

	seatLedger := ledger.NewMemoryLedger()
	seatLedger.AddEvent(eventID, totalSeats)

	return &testFixture{
		eventID:  eventID,
		resolver: resolver,
		ledger:   seatLedger,
		store:    newFakeStore(),
	}
}

func (f *testFixture) service(opts ...ServiceOption) Service {
	return NewService(f.resolver, f.ledger, f.store, database.NopTxRunner{}, opts...)
}

func (f *testFixture) available(t *testing.T) int {
	t.Helper()
	n, ok := f.ledger.Available(f.eventID)
	require.True(t, ok)
	return n
}

func reserveReq(eventID uuid.UUID, class string, qty int) ReserveRequest {
	return ReserveRequest{
		EventID:       eventID,
		CustomerName:  "Alice Example",
		CustomerEmail: "alice@example.com",
		SeatClass:     class,
		Quantity:      qty,
	}
}

func TestReservePricing(t *testing.T) {
	t.Run("vip booking freezes the total price", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		notifier := &fakeNotifier{}
		fixedNow := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
		svc := fx.service(
			WithNotifier(notifier),
			WithClock(func() time.Time { return fixedNow }),
		)

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "VIP", 3))
		require.NoError(t, err)
		require.True(t, outcome.IsConfirmed())

		// 20.00 * 1.5 * 3
		assert.Equal(t, "90.00", outcome.TotalPrice.StringFixed(2))
		assert.Equal(t, 2, fx.available(t))

		stored, err := fx.store.GetByID(context.Background(), outcome.BookingID)
		require.NoError(t, err)
		assert.Equal(t, "90.00", stored.TotalPrice.StringFixed(2))
		assert.Equal(t, fixedNow, stored.CreatedAt)
		require.Len(t, notifier.confirmed, 1)
	})

	t.Run("unknown seat class prices as standard by default", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		svc := fx.service()

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "BALCONY", 2))
		require.NoError(t, err)
		require.True(t, outcome.IsConfirmed())
		assert.Equal(t, "40.00", outcome.TotalPrice.StringFixed(2))

		stored, err := fx.store.GetByID(context.Background(), outcome.BookingID)
		require.NoError(t, err)
		assert.Equal(t, "STANDARD", stored.SeatClass.String())
	})

	t.Run("strict mode rejects unknown seat classes", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		svc := fx.service(WithStrictSeatClasses())

		_, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "BALCONY", 2))
		require.ErrorIs(t, err, ErrUnknownSeatClass)
		assert.Equal(t, 5, fx.available(t), "nothing may be reserved on validation failure")
		assert.Equal(t, 0, fx.store.count())
	})
}

func TestReserveRejections(t *testing.T) {
	t.Run("insufficient capacity leaves everything untouched", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		notifier := &fakeNotifier{}
		svc := fx.service(WithNotifier(notifier))

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "VIP", 3))
		require.NoError(t, err)
		require.True(t, outcome.IsConfirmed())

		// 2 seats left, asking for 3 again.
		outcome, err = svc.Reserve(context.Background(), reserveReq(fx.eventID, "VIP", 3))
		require.NoError(t, err, "business rejection is not an error")
		assert.Equal(t, OutcomeRejected, outcome.Status)
		assert.Equal(t, ReasonInsufficientCapacity, outcome.Reason)
		assert.False(t, outcome.Retryable())

		assert.Equal(t, 2, fx.available(t))
		assert.Equal(t, 1, fx.store.count())
		require.Len(t, notifier.failed, 1)
		assert.Equal(t, ReasonInsufficientCapacity, notifier.failed[0])
	})

	t.Run("unknown event", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		svc := fx.service()

		outcome, err := svc.Reserve(context.Background(), reserveReq(uuid.New(), "", 1))
		require.NoError(t, err)
		assert.Equal(t, OutcomeRejected, outcome.Status)
		assert.Equal(t, ReasonEventNotFound, outcome.Reason)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		svc := fx.service()

		_, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "", 0))
		require.ErrorIs(t, err, ledger.ErrInvalidQuantity)
	})
}

func TestReserveAtomicity(t *testing.T) {
	t.Run("failed persist releases the reserved seats", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		fx.store.insertErr = errors.New("disk full")
		svc := fx.service()

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "", 2))
		require.Error(t, err)
		assert.Equal(t, OutcomeFailed, outcome.Status)
		assert.Equal(t, ReasonStorageError, outcome.Reason)

		assert.Equal(t, 5, fx.available(t), "compensating release must restore capacity")
		assert.Equal(t, 0, fx.store.count())
	})

	t.Run("shared transaction leaves the rollback to the database", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		fx.store.insertErr = errors.New("unique violation")
		rec := &releaseRecordingLedger{MemoryLedger: fx.ledger}
		svc := NewService(fx.resolver, rec, fx.store, sqlTxRunner{})

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "", 2))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrLedgerInconsistent,
			"a rolled-back storage fault is not a ledger inconsistency")
		assert.Equal(t, OutcomeFailed, outcome.Status)
		assert.Equal(t, ReasonStorageError, outcome.Reason)
		assert.Equal(t, 0, rec.releases,
			"the aborted transaction restores the seats, a release could only fail")
	})

	t.Run("failed persist and failed release escalates", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		fx.store.insertErr = errors.New("disk full")
		broken := &brokenReleaseLedger{
			MemoryLedger: fx.ledger,
			releaseErr:   errors.New("ledger down"),
		}
		svc := NewService(fx.resolver, broken, fx.store, database.NopTxRunner{})

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "", 2))
		require.ErrorIs(t, err, ErrLedgerInconsistent)
		assert.Equal(t, OutcomeFailed, outcome.Status)
		assert.Equal(t, ReasonStorageError, outcome.Reason)
	})

	t.Run("contended ledger reports busy", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		svc := NewService(fx.resolver, &stubLedger{reserveErr: ledger.ErrBusy}, fx.store, database.NopTxRunner{})

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "", 1))
		require.NoError(t, err)
		assert.Equal(t, OutcomeFailed, outcome.Status)
		assert.Equal(t, ReasonBusy, outcome.Reason)
		assert.True(t, outcome.Retryable())
	})
}

func TestReserveConcurrency(t *testing.T) {
	fx := newFixture(10, "25.00")
	svc := fx.service()

	const attempts = 20
	outcomes := make([]*ReserveOutcome, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = svc.Reserve(context.Background(), reserveReq(fx.eventID, "", 1))
		}(i)
	}
	wg.Wait()

	confirmed, rejected := 0, 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		switch outcomes[i].Status {
		case OutcomeConfirmed:
			confirmed++
		case OutcomeRejected:
			require.Equal(t, ReasonInsufficientCapacity, outcomes[i].Reason)
			rejected++
		default:
			t.Fatalf("unexpected outcome %s", outcomes[i].Status)
		}
	}

	assert.Equal(t, 10, confirmed, "every seat sold exactly once")
	assert.Equal(t, 10, rejected)
	assert.Equal(t, 0, fx.available(t))
	assert.Equal(t, 10, fx.store.count())
}

func TestReserveIdempotency(t *testing.T) {
	t.Run("retry with the same key returns the original booking", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		idem := newFakeCache()
		svc := fx.service(WithIdempotencyCache(idem))

		req := reserveReq(fx.eventID, "VIP", 2)
		req.IdempotencyKey = "retry-1"

		first, err := svc.Reserve(context.Background(), req)
		require.NoError(t, err)
		require.True(t, first.IsConfirmed())

		second, err := svc.Reserve(context.Background(), req)
		require.NoError(t, err)
		require.True(t, second.IsConfirmed())
		assert.Equal(t, first.BookingID, second.BookingID)

		assert.Equal(t, 3, fx.available(t), "seats charged once, not twice")
		assert.Equal(t, 1, fx.store.count())
	})

	t.Run("in-flight key reports busy", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		idem := newFakeCache()
		require.NoError(t, idem.Set(context.Background(), "reservation_idem:stuck", "__pending__", time.Hour))
		svc := fx.service(WithIdempotencyCache(idem))

		req := reserveReq(fx.eventID, "", 1)
		req.IdempotencyKey = "stuck"

		outcome, err := svc.Reserve(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, OutcomeFailed, outcome.Status)
		assert.Equal(t, ReasonBusy, outcome.Reason)
		assert.Equal(t, 5, fx.available(t))
	})

	t.Run("failed attempt frees the key for a retry", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		idem := newFakeCache()
		svc := fx.service(WithIdempotencyCache(idem))

		req := reserveReq(fx.eventID, "", 1)
		req.IdempotencyKey = "flaky"

		fx.store.insertErr = errors.New("disk full")
		outcome, err := svc.Reserve(context.Background(), req)
		require.Error(t, err)
		require.Equal(t, OutcomeFailed, outcome.Status)

		fx.store.insertErr = nil
		outcome, err = svc.Reserve(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, outcome.IsConfirmed())
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("removes the booking without restoring capacity", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		svc := fx.service()

		outcome, err := svc.Reserve(context.Background(), reserveReq(fx.eventID, "", 2))
		require.NoError(t, err)
		require.True(t, outcome.IsConfirmed())
		require.Equal(t, 3, fx.available(t))

		require.NoError(t, svc.CancelBooking(context.Background(), outcome.BookingID))

		_, err = svc.GetBooking(context.Background(), outcome.BookingID)
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.Equal(t, 3, fx.available(t), "cancellation sits outside the reservation protocol")
	})

	t.Run("unknown booking", func(t *testing.T) {
		fx := newFixture(5, "20.00")
		svc := fx.service()
		err := svc.CancelBooking(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}
