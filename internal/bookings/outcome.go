package bookings

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrLedgerInconsistent signals that seats were decremented but the
// booking was not persisted AND the compensating release failed too.
// The ledger is now short of seats for a booking that does not exist;
// this must be escalated, never swallowed.
var ErrLedgerInconsistent = errors.New("ledger inconsistent: seats decremented without a booking")

type OutcomeStatus string

const (
	OutcomeConfirmed OutcomeStatus = "CONFIRMED"
	OutcomeRejected  OutcomeStatus = "REJECTED"
	OutcomeFailed    OutcomeStatus = "FAILED"
)

// OutcomeReason explains a rejected or failed reservation attempt.
type OutcomeReason string

const (
	ReasonEventNotFound        OutcomeReason = "EVENT_NOT_FOUND"
	ReasonInsufficientCapacity OutcomeReason = "INSUFFICIENT_CAPACITY"
	ReasonStorageError         OutcomeReason = "STORAGE_ERROR"
	ReasonBusy                 OutcomeReason = "BUSY"
)

// ReserveOutcome is the single terminal result of one reservation
// attempt: Confirmed, Rejected (business rejection, caller may adjust
// and resubmit) or Failed (infrastructure fault). The HTTP shape is
// ToReserveResponse; this struct never serializes directly.
type ReserveOutcome struct {
	Status     OutcomeStatus
	Reason     OutcomeReason
	BookingID  uuid.UUID
	TotalPrice decimal.Decimal

	// Booking carries the committed row on a confirmed outcome.
	Booking *Booking
}

// IsConfirmed reports whether the attempt committed a booking.
func (o *ReserveOutcome) IsConfirmed() bool {
	return o.Status == OutcomeConfirmed
}

// Retryable reports whether resubmitting the identical request can
// succeed without the caller changing anything.
func (o *ReserveOutcome) Retryable() bool {
	return o.Status == OutcomeFailed && o.Reason == ReasonBusy
}

func confirmed(b *Booking) *ReserveOutcome {
	return &ReserveOutcome{
		Status:     OutcomeConfirmed,
		BookingID:  b.ID,
		TotalPrice: b.TotalPrice,
		Booking:    b,
	}
}

func rejected(reason OutcomeReason) *ReserveOutcome {
	return &ReserveOutcome{Status: OutcomeRejected, Reason: reason}
}

func failed(reason OutcomeReason) *ReserveOutcome {
	return &ReserveOutcome{Status: OutcomeFailed, Reason: reason}
}
