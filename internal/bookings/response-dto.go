package bookings

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReserveResponse struct {
	Status     string          `json:"status"`
	Reason     string          `json:"reason,omitempty"`
	BookingID  string          `json:"booking_id,omitempty"`
	TotalPrice decimal.Decimal `json:"total_price"`
	SeatClass  string          `json:"seat_class,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
}

type BookingResponse struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	SeatClass     string          `json:"seat_class"`
	Quantity      int             `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`
}

type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// ToResponse converts a Booking to its API representation.
func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:            b.ID.String(),
		EventID:       b.EventID.String(),
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		SeatClass:     b.SeatClass.String(),
		Quantity:      b.Quantity,
		TotalPrice:    b.TotalPrice,
		CreatedAt:     b.CreatedAt,
	}
}

// ToReserveResponse converts a terminal outcome to its API shape.
func (o *ReserveOutcome) ToReserveResponse() ReserveResponse {
	resp := ReserveResponse{
		Status:     string(o.Status),
		Reason:     string(o.Reason),
		TotalPrice: o.TotalPrice,
	}
	if o.Booking != nil {
		resp.BookingID = o.Booking.ID.String()
		resp.SeatClass = o.Booking.SeatClass.String()
		resp.Quantity = o.Booking.Quantity
		createdAt := o.Booking.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}
