package bookings

import (
	"context"
	"errors"
	"time"

	"ticketbooking/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBookingNotFound is returned when no booking exists for the id.
var ErrBookingNotFound = errors.New("booking not found")

// Store is the durable record of confirmed bookings. Insert must join
// the transaction carried by the context so the booking row and the
// ledger decrement commit or roll back together.
type Store interface {
	Insert(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) ([]Booking, error)
	GetAll(ctx context.Context, query BookingListQuery) ([]Booking, int64, error)

	// Delete is the administrative cancellation path. It removes the
	// booking row only; ledger capacity is deliberately not restored.
	Delete(ctx context.Context, id uuid.UUID) error
}

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) Insert(ctx context.Context, booking *Booking) error {
	return database.FromContext(ctx, s.db).WithContext(ctx).Create(booking).Error
}

func (s *store) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (s *store) GetByEventID(ctx context.Context, eventID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (s *store) GetAll(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := s.db.WithContext(ctx).Model(&Booking{})

	if query.EventID != "" {
		if eventID, err := uuid.Parse(query.EventID); err == nil {
			baseQuery = baseQuery.Where("event_id = ?", eventID)
		}
	}
	if query.DateFrom != "" {
		if dateFrom, err := time.Parse("2006-01-02", query.DateFrom); err == nil {
			baseQuery = baseQuery.Where("created_at >= ?", dateFrom)
		}
	}
	if query.DateTo != "" {
		if dateTo, err := time.Parse("2006-01-02", query.DateTo); err == nil {
			// Include the entire day
			dateTo = dateTo.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
			baseQuery = baseQuery.Where("created_at <= ?", dateTo)
		}
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

func (s *store) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Booking{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}
