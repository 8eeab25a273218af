package bookings

import (
	"time"

	"ticketbooking/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is the durable record of a confirmed reservation. The total
// price is a frozen snapshot computed at reservation time; it is never
// recomputed from the event's current base price.
type Booking struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"event_id"`
	CustomerName  string            `gorm:"not null;size:255" json:"customer_name"`
	CustomerEmail string            `gorm:"size:255" json:"customer_email,omitempty"`
	CustomerPhone string            `gorm:"size:50" json:"customer_phone,omitempty"`
	SeatClass     pricing.SeatClass `gorm:"type:varchar(20);not null;default:'STANDARD'" json:"seat_class"`
	Quantity      int               `gorm:"not null;check:quantity >= 1" json:"quantity"`
	TotalPrice    decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"total_price"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (Booking) TableName() string {
	return "bookings"
}
