package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketbooking/internal/events"
	"ticketbooking/internal/shared/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres error code for a lock_timeout expiry.
const pgLockNotAvailable = "55P03"

// GormLedger serializes reservations with a pessimistic row lock
// (SELECT ... FOR UPDATE) on the event row. The lock is held until the
// surrounding transaction commits or rolls back, so it must run inside
// database.WithTx together with the booking insert.
type GormLedger struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

type GormLedgerOption func(*GormLedger)

// WithLockTimeout bounds how long TryReserve waits for the event row
// lock. Expiry surfaces as ErrBusy instead of queueing behind a slow
// competing reservation indefinitely.
func WithLockTimeout(d time.Duration) GormLedgerOption {
	return func(l *GormLedger) {
		if d > 0 {
			l.lockTimeout = d
		}
	}
}

func NewGormLedger(db *gorm.DB, opts ...GormLedgerOption) *GormLedger {
	l := &GormLedger{db: db}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLedger) TryReserve(ctx context.Context, eventID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	tx := database.FromContext(ctx, l.db).WithContext(ctx)

	// SET LOCAL scopes the timeout to the surrounding transaction.
	if l.lockTimeout > 0 && database.InTx(ctx) {
		err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", l.lockTimeout.Milliseconds())).Error
		if err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	var event events.Event
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if isLockTimeout(err) {
			return ErrBusy
		}
		return fmt.Errorf("failed to lock event row: %w", err)
	}

	if event.AvailableSeats < quantity {
		return ErrInsufficientCapacity
	}

	err = tx.Model(&events.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("available_seats", gorm.Expr("available_seats - ?", quantity)).Error
	if err != nil {
		return fmt.Errorf("failed to decrement available seats: %w", err)
	}

	return nil
}

func (l *GormLedger) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	tx := database.FromContext(ctx, l.db).WithContext(ctx)

	res := tx.Model(&events.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("available_seats", gorm.Expr("LEAST(total_seats, available_seats + ?)", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to release seats: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// isLockTimeout reports whether err is Postgres giving up on acquiring
// the row lock within lock_timeout.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}
