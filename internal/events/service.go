package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketbooking/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// Service interface defines the contract for event business logic
type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (*EventResponse, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error)
}

// CapacitySeeder mirrors event capacity into a seat ledger that lives
// outside the events table (memory, Redis). The SQL-backed ledger
// reads the events table directly and needs no seeder.
type CapacitySeeder interface {
	InitEvent(ctx context.Context, eventID uuid.UUID, totalSeats, availableSeats int) error
}

type service struct {
	repo   Repository
	cache  cache.Service
	seeder CapacitySeeder
}

const eventCacheTTL = 5 * time.Minute

func eventCacheKey(id uuid.UUID) string {
	return "event:" + id.String()
}

type ServiceOption func(*service)

// WithCapacitySeeder keeps an external seat ledger in step with event
// creation and capacity corrections.
func WithCapacitySeeder(seeder CapacitySeeder) ServiceOption {
	return func(s *service) { s.seeder = seeder }
}

// NewService creates a new event service instance. The cache is
// optional; pass nil to serve reads straight from the repository.
func NewService(repo Repository, cacheService cache.Service, opts ...ServiceOption) Service {
	s := &service{repo: repo, cache: cacheService}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent creates an event with the full capacity available.
func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest) (*EventResponse, error) {
	if req.BasePrice.IsNegative() {
		return nil, fmt.Errorf("base price must not be negative")
	}

	event := &Event{
		Name:           req.Name,
		Description:    req.Description,
		Venue:          req.Venue,
		DateTime:       req.DateTime,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		BasePrice:      req.BasePrice,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if s.seeder != nil {
		if err := s.seeder.InitEvent(ctx, event.ID, event.TotalSeats, event.AvailableSeats); err != nil {
			return nil, fmt.Errorf("failed to seed seat ledger: %w", err)
		}
	}

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	if s.cache != nil {
		var cached EventResponse
		if err := s.cache.Get(ctx, eventCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	resp := event.ToResponse()
	if s.cache != nil {
		// Best effort; a cache failure must not fail the read.
		_ = s.cache.Set(ctx, eventCacheKey(id), resp, eventCacheTTL)
	}
	return &resp, nil
}

func (s *service) ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	events, totalCount, err := s.repo.GetAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}

	return &PaginatedEvents{
		Events:     responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: CalculateTotalPages(totalCount, query.Limit),
	}, nil
}

// UpdateEvent applies an administrative correction. Capacity changes
// shift available seats by the same delta so that sold seats stay sold
// and 0 <= available_seats <= total_seats keeps holding.
func (s *service) UpdateEvent(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Venue != nil {
		updates["venue"] = *req.Venue
	}
	if req.DateTime != nil {
		updates["date_time"] = *req.DateTime
	}
	if req.BasePrice != nil {
		if req.BasePrice.IsNegative() {
			return nil, fmt.Errorf("base price must not be negative")
		}
		updates["base_price"] = *req.BasePrice
	}
	if req.TotalSeats != nil {
		sold := current.TotalSeats - current.AvailableSeats
		if *req.TotalSeats < sold {
			return nil, fmt.Errorf("total seats cannot drop below the %d already booked", sold)
		}
		updates["total_seats"] = *req.TotalSeats
		updates["available_seats"] = *req.TotalSeats - sold
	}

	if len(updates) == 0 {
		resp := current.ToResponse()
		return &resp, nil
	}

	event, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if s.seeder != nil && req.TotalSeats != nil {
		if err := s.seeder.InitEvent(ctx, id, event.TotalSeats, event.AvailableSeats); err != nil {
			return nil, fmt.Errorf("failed to reseed seat ledger: %w", err)
		}
	}

	s.invalidate(ctx, id)
	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to get event: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *service) GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	events, err := s.repo.GetUpcomingEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}

	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}
	return responses, nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, eventCacheKey(id))
	}
}
