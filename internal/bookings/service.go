package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ticketbooking/internal/events"
	"ticketbooking/internal/ledger"
	"ticketbooking/internal/pricing"
	"ticketbooking/internal/shared/database"
	"ticketbooking/pkg/cache"
	"ticketbooking/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrUnknownSeatClass is returned in strict mode for seat classes
// outside the closed enumeration.
var ErrUnknownSeatClass = errors.New("unknown seat class")

// EventResolver resolves events for reservation attempts (narrow
// interface to keep the bookings package decoupled from the events
// service wiring).
type EventResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// Notifier is told about terminal outcomes; delivery mechanics are not
// the reservation core's concern and failures never affect the outcome.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *Booking) error
	BookingFailed(ctx context.Context, req ReserveRequest, reason OutcomeReason) error
}

// Service interface defines the contract for the reservation core and
// the booking read/admin side.
type Service interface {
	// Reserve runs one reservation attempt to a terminal outcome.
	// Business rejections come back inside the outcome with a nil
	// error; a non-nil error means an infrastructure fault (the
	// outcome still describes it).
	Reserve(ctx context.Context, req ReserveRequest) (*ReserveOutcome, error)

	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingsByEvent(ctx context.Context, eventID uuid.UUID) ([]Booking, error)
	ListBookings(ctx context.Context, query BookingListQuery) ([]Booking, int64, error)

	// CancelBooking deletes the booking row. Capacity is deliberately
	// not restored: cancellation sits outside the reservation
	// protocol's atomicity.
	CancelBooking(ctx context.Context, id uuid.UUID) error
}

type service struct {
	events   EventResolver
	ledger   ledger.Ledger
	store    Store
	tx       database.TxRunner
	notifier Notifier
	idem     cache.Service
	log      *logger.Logger

	strictSeatClass bool
	now             func() time.Time
}

const (
	idemKeyPrefix  = "reservation_idem:"
	idemPendingVal = "__pending__"
	idemTTL        = 24 * time.Hour
)

type ServiceOption func(*service)

// WithStrictSeatClasses rejects unrecognized seat classes instead of
// silently pricing them as Standard.
func WithStrictSeatClasses() ServiceOption {
	return func(s *service) { s.strictSeatClass = true }
}

// WithNotifier wires the collaborator told about outcomes.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *service) { s.notifier = n }
}

// WithIdempotencyCache enables the duplicate-suppression guard for
// requests that carry an idempotency key.
func WithIdempotencyCache(c cache.Service) ServiceOption {
	return func(s *service) { s.idem = c }
}

// WithClock overrides the commit timestamp source (tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the reservation service. The tx runner must make
// ledger and store atomic together for SQL deployments; pass
// database.NopTxRunner when the ledger carries its own atomicity and
// the compensating release is the rollback path.
func NewService(eventResolver EventResolver, seatLedger ledger.Ledger, store Store, tx database.TxRunner, opts ...ServiceOption) Service {
	s := &service{
		events: eventResolver,
		ledger: seatLedger,
		store:  store,
		tx:     tx,
		log:    logger.GetDefault(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*ReserveOutcome, error) {
	if req.Quantity < 1 {
		return nil, ledger.ErrInvalidQuantity
	}

	// Step 1: resolve the event; its base price is captured here and
	// not re-read after the ledger decrement, so a concurrent price
	// change cannot open a second race window.
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, events.ErrEventNotFound) {
			return rejected(ReasonEventNotFound), nil
		}
		return failed(ReasonStorageError), fmt.Errorf("failed to resolve event: %w", err)
	}

	// Step 2: normalize the seat class. The legacy policy prices
	// unknown classes as Standard; strict mode turns that into a
	// validation error instead.
	if s.strictSeatClass && req.SeatClass != "" && !pricing.IsKnownSeatClass(req.SeatClass) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSeatClass, req.SeatClass)
	}
	seatClass := pricing.ParseSeatClass(req.SeatClass)

	// Duplicate suppression for caller retries after a timeout.
	if req.IdempotencyKey != "" && s.idem != nil {
		if outcome, done, err := s.claimIdempotencyKey(ctx, req); done {
			return outcome, err
		}
	}

	// Steps 3-5: decrement the ledger and persist the booking as one
	// all-or-nothing unit.
	var booking *Booking
	txErr := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.TryReserve(txCtx, req.EventID, req.Quantity); err != nil {
			return err
		}

		b := &Booking{
			EventID:       req.EventID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			SeatClass:     seatClass,
			Quantity:      req.Quantity,
			TotalPrice:    pricing.ComputeTotal(event.BasePrice, seatClass, req.Quantity),
			CreatedAt:     s.now(),
		}

		if err := s.store.Insert(txCtx, b); err != nil {
			// Compensating release: the ledger must never stay
			// decremented for a booking that does not exist. When the
			// ledger shares our database transaction the failed insert
			// already aborted it, the rollback restores the seats, and
			// a release here could only fail; the compensation is for
			// memory/Redis ledgers, where it IS the rollback.
			if database.InTx(txCtx) {
				return fmt.Errorf("failed to persist booking: %w", err)
			}
			if relErr := s.ledger.Release(txCtx, req.EventID, req.Quantity); relErr != nil {
				return fmt.Errorf("%w: insert failed (%v), release failed (%v)",
					ErrLedgerInconsistent, err, relErr)
			}
			return fmt.Errorf("failed to persist booking: %w", err)
		}

		booking = b
		return nil
	})

	if txErr != nil {
		outcome, err := s.mapReserveError(req, txErr)
		s.notifyFailed(ctx, req, outcome.Reason)
		return outcome, err
	}

	if req.IdempotencyKey != "" && s.idem != nil {
		// Record the committed booking for future retries. Best
		// effort: the booking is already durable.
		if err := s.idem.Set(ctx, idemKeyPrefix+req.IdempotencyKey, booking.ID.String(), idemTTL); err != nil {
			s.log.Warn("failed to record idempotency key",
				slog.String("booking_id", booking.ID.String()),
				slog.Any("error", err))
		}
	}

	s.notifyConfirmed(ctx, booking)
	return confirmed(booking), nil
}

// claimIdempotencyKey returns (outcome, true, err) when the request was
// already processed or is in flight, (nil, false, nil) when this
// attempt now owns the key.
func (s *service) claimIdempotencyKey(ctx context.Context, req ReserveRequest) (*ReserveOutcome, bool, error) {
	key := idemKeyPrefix + req.IdempotencyKey

	claimed, err := s.idem.SetNX(ctx, key, idemPendingVal, idemTTL)
	if err != nil {
		// The guard is advisory; losing it must not block reservations.
		s.log.Warn("idempotency guard unavailable", slog.Any("error", err))
		return nil, false, nil
	}
	if claimed {
		return nil, false, nil
	}

	var existing string
	if err := s.idem.Get(ctx, key, &existing); err != nil {
		return nil, false, nil
	}
	if existing == idemPendingVal {
		// Another attempt with the same key is still running.
		return failed(ReasonBusy), true, nil
	}

	bookingID, err := uuid.Parse(existing)
	if err != nil {
		return nil, false, nil
	}
	booking, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return failed(ReasonStorageError), true, fmt.Errorf("failed to load booking for idempotency key: %w", err)
	}
	return confirmed(booking), true, nil
}

func (s *service) mapReserveError(req ReserveRequest, err error) (*ReserveOutcome, error) {
	s.releaseIdempotencyClaim(req)

	switch {
	case errors.Is(err, ledger.ErrEventNotFound):
		return rejected(ReasonEventNotFound), nil
	case errors.Is(err, ledger.ErrInsufficientCapacity):
		return rejected(ReasonInsufficientCapacity), nil
	case errors.Is(err, ledger.ErrBusy):
		return failed(ReasonBusy), nil
	case errors.Is(err, ErrLedgerInconsistent):
		s.log.Error("fatal ledger inconsistency",
			slog.String("event_id", req.EventID.String()),
			slog.Int("quantity", req.Quantity),
			slog.Any("error", err))
		return failed(ReasonStorageError), err
	default:
		return failed(ReasonStorageError), err
	}
}

// releaseIdempotencyClaim frees the pending marker after a failed
// attempt so the caller can retry with the same key.
func (s *service) releaseIdempotencyClaim(req ReserveRequest) {
	if req.IdempotencyKey == "" || s.idem == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.idem.Delete(ctx, idemKeyPrefix+req.IdempotencyKey); err != nil {
		s.log.Warn("failed to release idempotency claim", slog.Any("error", err))
	}
}

func (s *service) notifyConfirmed(ctx context.Context, booking *Booking) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BookingConfirmed(ctx, booking); err != nil {
		s.log.Warn("failed to publish booking confirmation",
			slog.String("booking_id", booking.ID.String()),
			slog.Any("error", err))
	}
}

func (s *service) notifyFailed(ctx context.Context, req ReserveRequest, reason OutcomeReason) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BookingFailed(ctx, req, reason); err != nil {
		s.log.Warn("failed to publish booking failure",
			slog.String("event_id", req.EventID.String()),
			slog.Any("error", err))
	}
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.store.GetByID(ctx, id)
}

func (s *service) GetBookingsByEvent(ctx context.Context, eventID uuid.UUID) ([]Booking, error) {
	return s.store.GetByEventID(ctx, eventID)
}

func (s *service) ListBookings(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	return s.store.GetAll(ctx, query)
}

func (s *service) CancelBooking(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
