package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Event struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name           string          `json:"name" gorm:"not null;size:255"`
	Description    string          `json:"description" gorm:"type:text"`
	Venue          string          `json:"venue" gorm:"not null;size:255"`
	DateTime       time.Time       `json:"date_time" gorm:"not null"`
	TotalSeats     int             `json:"total_seats" gorm:"not null;check:total_seats > 0"`
	AvailableSeats int             `json:"available_seats" gorm:"not null;check:available_seats >= 0"`
	BasePrice      decimal.Decimal `json:"base_price" gorm:"type:numeric(12,2);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

// IsSoldOut reports whether no seats remain.
func (e *Event) IsSoldOut() bool {
	return e.AvailableSeats <= 0
}

type EventResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Venue          string          `json:"venue"`
	DateTime       time.Time       `json:"date_time"`
	TotalSeats     int             `json:"total_seats"`
	AvailableSeats int             `json:"available_seats"`
	BasePrice      decimal.Decimal `json:"base_price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateEventRequest struct {
	Name        string          `json:"name" binding:"required,min=3,max=255"`
	Description string          `json:"description" binding:"max=2000"`
	Venue       string          `json:"venue" binding:"required,min=3,max=255"`
	DateTime    time.Time       `json:"date_time" binding:"required"`
	TotalSeats  int             `json:"total_seats" binding:"required,min=1,max=100000"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

type UpdateEventRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Venue       *string          `json:"venue" binding:"omitempty,min=3,max=255"`
	DateTime    *time.Time       `json:"date_time"`
	TotalSeats  *int             `json:"total_seats" binding:"omitempty,min=1,max=100000"`
	BasePrice   *decimal.Decimal `json:"base_price"`
}

type EventListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Venue    string `form:"venue"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// ToResponse converts an Event to its API representation.
func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:             e.ID.String(),
		Name:           e.Name,
		Description:    e.Description,
		Venue:          e.Venue,
		DateTime:       e.DateTime,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		BasePrice:      e.BasePrice,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
