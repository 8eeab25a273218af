package bookings

import "github.com/google/uuid"

// ReserveRequest is the single call the presentation layer makes into
// the reservation core. Field formats (email/phone syntax, name
// length) are validated at the binding edge; the core only cares about
// event, class and quantity.
type ReserveRequest struct {
	EventID        uuid.UUID `json:"event_id" binding:"required"`
	CustomerName   string    `json:"customer_name" binding:"required,min=1,max=255"`
	CustomerEmail  string    `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone  string    `json:"customer_phone" binding:"omitempty,max=50"`
	SeatClass      string    `json:"seat_class" binding:"omitempty,seatclass"`
	Quantity       int       `json:"quantity" binding:"required,min=1"`
	IdempotencyKey string    `json:"idempotency_key" binding:"omitempty,max=128"`
}

type BookingListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	EventID  string `form:"event_id" binding:"omitempty,uuid"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}
