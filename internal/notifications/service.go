package notifications

import (
	"context"
	"fmt"

	"ticketbooking/internal/bookings"
)

// OutcomeNotifier adapts the producer to the reservation core's
// Notifier contract: it is told about terminal outcomes and turns them
// into notification messages.
type OutcomeNotifier struct {
	producer Producer
}

func NewOutcomeNotifier(producer Producer) *OutcomeNotifier {
	return &OutcomeNotifier{producer: producer}
}

func (n *OutcomeNotifier) BookingConfirmed(ctx context.Context, booking *bookings.Booking) error {
	if booking.CustomerEmail == "" {
		// Email is optional on the booking; nothing to deliver to.
		return nil
	}

	return n.producer.Publish(ctx, &Notification{
		Type:           NotificationTypeBookingConfirmed,
		Priority:       NotificationPriorityHigh,
		RecipientEmail: booking.CustomerEmail,
		RecipientName:  booking.CustomerName,
		Subject:        "Your booking is confirmed",
		Data: map[string]interface{}{
			"booking_id":  booking.ID.String(),
			"event_id":    booking.EventID.String(),
			"seat_class":  booking.SeatClass.String(),
			"quantity":    booking.Quantity,
			"total_price": booking.TotalPrice.String(),
		},
	})
}

func (n *OutcomeNotifier) BookingFailed(ctx context.Context, req bookings.ReserveRequest, reason bookings.OutcomeReason) error {
	if req.CustomerEmail == "" {
		return nil
	}

	return n.producer.Publish(ctx, &Notification{
		Type:           NotificationTypeBookingFailed,
		Priority:       NotificationPriorityMedium,
		RecipientEmail: req.CustomerEmail,
		RecipientName:  req.CustomerName,
		Subject:        fmt.Sprintf("Your booking could not be completed (%s)", reason),
		Data: map[string]interface{}{
			"event_id": req.EventID.String(),
			"quantity": req.Quantity,
			"reason":   string(reason),
		},
	})
}
