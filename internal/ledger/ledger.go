// Package ledger holds the durable counter of remaining seats per
// event. Every reservation attempt funnels its capacity check and
// decrement through a Ledger so the read-decide-write sequence is
// serialized per event, whatever the backing store.
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrEventNotFound is returned when the ledger has no entry for the event.
	ErrEventNotFound = errors.New("event not found")
	// ErrInsufficientCapacity is returned when fewer seats remain than requested.
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrBusy is returned when the per-event lock could not be acquired
	// within the configured wait. Safe to retry.
	ErrBusy = errors.New("ledger busy, try again")
)

// Ledger is the capacity capability the reservation transaction runs
// against. Implementations must guarantee that TryReserve's
// check-and-decrement is atomic per event: two concurrent calls may
// never both act on the same observed seat count.
type Ledger interface {
	// TryReserve atomically checks that quantity seats remain for the
	// event and decrements the counter. On ErrInsufficientCapacity or
	// ErrEventNotFound no mutation occurs.
	TryReserve(ctx context.Context, eventID uuid.UUID, quantity int) error

	// Release adds quantity seats back after a later step of the
	// surrounding transaction failed. The counter is clamped so it
	// never exceeds the event's total capacity.
	Release(ctx context.Context, eventID uuid.UUID, quantity int) error
}
