package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepo struct {
	events map[uuid.UUID]*Event
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{events: make(map[uuid.UUID]*Event)}
}

func (f *fakeRepo) Create(ctx context.Context, event *Event) error {
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *ev
	return &copied, nil
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"]; ok {
		ev.Name = v.(string)
	}
	if v, ok := updates["base_price"]; ok {
		ev.BasePrice = v.(decimal.Decimal)
	}
	if v, ok := updates["total_seats"]; ok {
		ev.TotalSeats = v.(int)
	}
	if v, ok := updates["available_seats"]; ok {
		ev.AvailableSeats = v.(int)
	}
	copied := *ev
	return &copied, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.events, id)
	return nil
}

func (f *fakeRepo) GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	var out []Event
	for _, ev := range f.events {
		out = append(out, *ev)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) GetUpcomingEvents(ctx context.Context, limit int) ([]Event, error) {
	return nil, nil
}

func seedEvent(t *testing.T, repo *fakeRepo, total, available int) uuid.UUID {
	t.Helper()
	ev := &Event{
		Name:           "Test Event",
		Venue:          "Test Venue",
		DateTime:       time.Now().Add(24 * time.Hour),
		TotalSeats:     total,
		AvailableSeats: available,
		BasePrice:      decimal.NewFromInt(30),
	}
	require.NoError(t, repo.Create(context.Background(), ev))
	return ev.ID
}

func TestCreateEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.CreateEvent(context.Background(), CreateEventRequest{
		Name:       "Opening Night",
		Venue:      "Main Hall",
		DateTime:   time.Now().Add(48 * time.Hour),
		TotalSeats: 200,
		BasePrice:  decimal.NewFromFloat(49.50),
	})
	require.NoError(t, err)
	assert.Equal(t, 200, created.AvailableSeats, "new events start with full capacity")

	_, err = svc.CreateEvent(context.Background(), CreateEventRequest{
		Name:       "Bad Price",
		Venue:      "Main Hall",
		DateTime:   time.Now(),
		TotalSeats: 10,
		BasePrice:  decimal.NewFromInt(-1),
	})
	assert.Error(t, err)
}

func TestUpdateEventCapacity(t *testing.T) {
	t.Run("capacity change keeps sold seats sold", func(t *testing.T) {
		repo := newFakeRepo()
		// 100 total, 60 available: 40 sold.
		id := seedEvent(t, repo, 100, 60)
		svc := NewService(repo, nil)

		newTotal := 80
		updated, err := svc.UpdateEvent(context.Background(), id, UpdateEventRequest{TotalSeats: &newTotal})
		require.NoError(t, err)
		assert.Equal(t, 80, updated.TotalSeats)
		assert.Equal(t, 40, updated.AvailableSeats, "80 total - 40 sold")
	})

	t.Run("capacity cannot drop below sold seats", func(t *testing.T) {
		repo := newFakeRepo()
		id := seedEvent(t, repo, 100, 60)
		svc := NewService(repo, nil)

		newTotal := 30
		_, err := svc.UpdateEvent(context.Background(), id, UpdateEventRequest{TotalSeats: &newTotal})
		require.Error(t, err)

		current, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 100, current.TotalSeats, "rejected update must not mutate")
	})

	t.Run("unknown event", func(t *testing.T) {
		svc := NewService(newFakeRepo(), nil)
		name := "whatever"
		_, err := svc.UpdateEvent(context.Background(), uuid.New(), UpdateEventRequest{Name: &name})
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

type seedCall struct {
	id               uuid.UUID
	total, available int
}

type fakeSeeder struct {
	calls []seedCall
}

func (f *fakeSeeder) InitEvent(ctx context.Context, eventID uuid.UUID, totalSeats, availableSeats int) error {
	f.calls = append(f.calls, seedCall{id: eventID, total: totalSeats, available: availableSeats})
	return nil
}

func TestCapacitySeeder(t *testing.T) {
	t.Run("event creation seeds the ledger at full capacity", func(t *testing.T) {
		repo := newFakeRepo()
		seeder := &fakeSeeder{}
		svc := NewService(repo, nil, WithCapacitySeeder(seeder))

		created, err := svc.CreateEvent(context.Background(), CreateEventRequest{
			Name:       "Seeded Event",
			Venue:      "Main Hall",
			DateTime:   time.Now().Add(24 * time.Hour),
			TotalSeats: 50,
			BasePrice:  decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		require.Len(t, seeder.calls, 1)
		assert.Equal(t, created.ID, seeder.calls[0].id.String())
		assert.Equal(t, 50, seeder.calls[0].total)
		assert.Equal(t, 50, seeder.calls[0].available)
	})

	t.Run("capacity correction reseeds with the shifted available count", func(t *testing.T) {
		repo := newFakeRepo()
		id := seedEvent(t, repo, 100, 60)
		seeder := &fakeSeeder{}
		svc := NewService(repo, nil, WithCapacitySeeder(seeder))

		newTotal := 80
		_, err := svc.UpdateEvent(context.Background(), id, UpdateEventRequest{TotalSeats: &newTotal})
		require.NoError(t, err)

		require.Len(t, seeder.calls, 1)
		assert.Equal(t, 80, seeder.calls[0].total)
		assert.Equal(t, 40, seeder.calls[0].available)
	})

	t.Run("non-capacity updates do not touch the ledger", func(t *testing.T) {
		repo := newFakeRepo()
		id := seedEvent(t, repo, 100, 60)
		seeder := &fakeSeeder{}
		svc := NewService(repo, nil, WithCapacitySeeder(seeder))

		name := "Renamed"
		_, err := svc.UpdateEvent(context.Background(), id, UpdateEventRequest{Name: &name})
		require.NoError(t, err)
		assert.Empty(t, seeder.calls)
	})
}

func TestDeleteEvent(t *testing.T) {
	repo := newFakeRepo()
	id := seedEvent(t, repo, 10, 10)
	svc := NewService(repo, nil)

	require.NoError(t, svc.DeleteEvent(context.Background(), id))
	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), id), ErrEventNotFound)
}
