package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerTryReserve(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	t.Run("reserves when capacity available", func(t *testing.T) {
		l := NewMemoryLedger()
		l.AddEvent(eventID, 10)

		require.NoError(t, l.TryReserve(ctx, eventID, 3))

		available, ok := l.Available(eventID)
		require.True(t, ok)
		assert.Equal(t, 7, available)
	})

	t.Run("reserving exact capacity drives counter to zero", func(t *testing.T) {
		l := NewMemoryLedger()
		l.AddEvent(eventID, 5)

		require.NoError(t, l.TryReserve(ctx, eventID, 5))

		available, _ := l.Available(eventID)
		assert.Equal(t, 0, available)
	})

	t.Run("one over capacity fails with no mutation", func(t *testing.T) {
		l := NewMemoryLedger()
		l.AddEvent(eventID, 5)

		err := l.TryReserve(ctx, eventID, 6)
		assert.ErrorIs(t, err, ErrInsufficientCapacity)

		available, _ := l.Available(eventID)
		assert.Equal(t, 5, available)
	})

	t.Run("unknown event", func(t *testing.T) {
		l := NewMemoryLedger()
		err := l.TryReserve(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("quantity below one", func(t *testing.T) {
		l := NewMemoryLedger()
		l.AddEvent(eventID, 5)
		assert.ErrorIs(t, l.TryReserve(ctx, eventID, 0), ErrInvalidQuantity)
		assert.ErrorIs(t, l.TryReserve(ctx, eventID, -2), ErrInvalidQuantity)
	})
}

func TestMemoryLedgerRelease(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	t.Run("restores released seats", func(t *testing.T) {
		l := NewMemoryLedger()
		l.AddEvent(eventID, 10)
		require.NoError(t, l.TryReserve(ctx, eventID, 4))

		require.NoError(t, l.Release(ctx, eventID, 4))

		available, _ := l.Available(eventID)
		assert.Equal(t, 10, available)
	})

	t.Run("release clamps at total capacity", func(t *testing.T) {
		l := NewMemoryLedger()
		l.AddEvent(eventID, 10)

		require.NoError(t, l.Release(ctx, eventID, 3))

		available, _ := l.Available(eventID)
		assert.Equal(t, 10, available)
	})

	t.Run("unknown event", func(t *testing.T) {
		l := NewMemoryLedger()
		assert.ErrorIs(t, l.Release(ctx, uuid.New(), 1), ErrEventNotFound)
	})
}

func TestMemoryLedgerInitEvent(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	t.Run("registers a new event", func(t *testing.T) {
		l := NewMemoryLedger()
		require.NoError(t, l.InitEvent(ctx, eventID, 10, 10))
		require.NoError(t, l.TryReserve(ctx, eventID, 4))

		available, ok := l.Available(eventID)
		require.True(t, ok)
		assert.Equal(t, 6, available)
	})

	t.Run("capacity correction keeps sold seats sold", func(t *testing.T) {
		l := NewMemoryLedger()
		require.NoError(t, l.InitEvent(ctx, eventID, 10, 10))
		require.NoError(t, l.TryReserve(ctx, eventID, 6))

		// Admin shrinks the event to 8 seats: 6 sold, 2 left.
		require.NoError(t, l.InitEvent(ctx, eventID, 8, 2))

		available, _ := l.Available(eventID)
		assert.Equal(t, 2, available)
		assert.ErrorIs(t, l.TryReserve(ctx, eventID, 3), ErrInsufficientCapacity)
	})
}

// Twenty concurrent single-seat attempts against ten seats: exactly ten
// must succeed and ten must be rejected, whatever the interleaving.
func TestMemoryLedgerNoOverbooking(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()

	l := NewMemoryLedger()
	l.AddEvent(eventID, 10)

	const attempts = 20
	results := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.TryReserve(ctx, eventID, 1)
		}(i)
	}
	wg.Wait()

	var confirmed, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			confirmed++
		case err == ErrInsufficientCapacity:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 10, confirmed)
	assert.Equal(t, 10, rejected)

	available, _ := l.Available(eventID)
	assert.Equal(t, 0, available)
}

func TestMemoryLedgerBusyOnContention(t *testing.T) {
	eventID := uuid.New()

	l := NewMemoryLedger(WithLockWait(20 * time.Millisecond))
	l.AddEvent(eventID, 10)

	// Hold the per-event lock so the reservation attempt times out.
	l.mu.RLock()
	counter := l.events[eventID]
	l.mu.RUnlock()
	counter.sem <- struct{}{}
	defer func() { <-counter.sem }()

	err := l.TryReserve(context.Background(), eventID, 1)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestMemoryLedgerContextCancellation(t *testing.T) {
	eventID := uuid.New()

	l := NewMemoryLedger(WithLockWait(time.Minute))
	l.AddEvent(eventID, 10)

	l.mu.RLock()
	counter := l.events[eventID]
	l.mu.RUnlock()
	counter.sem <- struct{}{}
	defer func() { <-counter.sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.TryReserve(ctx, eventID, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
