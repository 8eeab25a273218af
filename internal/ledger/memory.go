package ledger

import (
	"context"
	"time"

	"sync"

	"github.com/google/uuid"
)

const defaultLockWait = 2 * time.Second

// MemoryLedger keeps seat counters in process memory with one lock per
// event, for single-node deployments and tests. Attempts against
// different events do not contend; attempts against the same event are
// serialized with a bounded wait that surfaces ErrBusy on timeout.
type MemoryLedger struct {
	mu       sync.RWMutex
	events   map[uuid.UUID]*memoryCounter
	lockWait time.Duration
}

type memoryCounter struct {
	sem       chan struct{} // 1-slot semaphore, the per-event lock
	total     int
	available int
}

type MemoryLedgerOption func(*MemoryLedger)

// WithLockWait bounds how long TryReserve and Release wait for the
// per-event lock before giving up with ErrBusy.
func WithLockWait(d time.Duration) MemoryLedgerOption {
	return func(l *MemoryLedger) {
		if d > 0 {
			l.lockWait = d
		}
	}
}

func NewMemoryLedger(opts ...MemoryLedgerOption) *MemoryLedger {
	l := &MemoryLedger{
		events:   make(map[uuid.UUID]*memoryCounter),
		lockWait: defaultLockWait,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddEvent registers an event with its full capacity available.
func (l *MemoryLedger) AddEvent(eventID uuid.UUID, totalSeats int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[eventID] = &memoryCounter{
		sem:       make(chan struct{}, 1),
		total:     totalSeats,
		available: totalSeats,
	}
}

// InitEvent writes the event's counters, registering the event when it
// is new. Called by the administrative collaborator when an event is
// created or its capacity corrected.
func (l *MemoryLedger) InitEvent(ctx context.Context, eventID uuid.UUID, totalSeats, availableSeats int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	counter, ok := l.events[eventID]
	if !ok {
		counter = &memoryCounter{sem: make(chan struct{}, 1)}
		l.events[eventID] = counter
	}
	counter.total = totalSeats
	counter.available = availableSeats
	return nil
}

// Available returns the current seat count for the event.
func (l *MemoryLedger) Available(eventID uuid.UUID) (int, bool) {
	l.mu.RLock()
	counter, ok := l.events[eventID]
	l.mu.RUnlock()
	if !ok {
		return 0, false
	}
	counter.sem <- struct{}{}
	defer func() { <-counter.sem }()
	return counter.available, true
}

func (l *MemoryLedger) TryReserve(ctx context.Context, eventID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	counter, err := l.lock(ctx, eventID)
	if err != nil {
		return err
	}
	defer func() { <-counter.sem }()

	if counter.available < quantity {
		return ErrInsufficientCapacity
	}
	counter.available -= quantity
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	counter, err := l.lock(ctx, eventID)
	if err != nil {
		return err
	}
	defer func() { <-counter.sem }()

	counter.available += quantity
	if counter.available > counter.total {
		counter.available = counter.total
	}
	return nil
}

// lock acquires the event's semaphore within the bounded wait. The
// caller must drain counter.sem when done.
func (l *MemoryLedger) lock(ctx context.Context, eventID uuid.UUID) (*memoryCounter, error) {
	l.mu.RLock()
	counter, ok := l.events[eventID]
	l.mu.RUnlock()
	if !ok {
		return nil, ErrEventNotFound
	}

	timer := time.NewTimer(l.lockWait)
	defer timer.Stop()

	select {
	case counter.sem <- struct{}{}:
		return counter, nil
	case <-timer.C:
		return nil, ErrBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
