package bookings

import (
	"errors"
	"net/http"

	"ticketbooking/internal/ledger"
	"ticketbooking/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	Reserve(c *gin.Context)
	GetBooking(c *gin.Context)
	GetEventBookings(c *gin.Context)
	ListBookings(c *gin.Context)
	CancelBooking(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// Reserve handles POST /api/v1/bookings
func (ctrl *controller) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	outcome, err := ctrl.service.Reserve(c.Request.Context(), req)
	if err != nil && outcome == nil {
		// Validation failures surfaced as plain errors
		if errors.Is(err, ErrUnknownSeatClass) || errors.Is(err, ledger.ErrInvalidQuantity) {
			response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Reservation failed", nil, err.Error())
		return
	}

	resp := outcome.ToReserveResponse()
	switch {
	case outcome.IsConfirmed():
		response.RespondJSON(c, "success", http.StatusCreated, "Booking confirmed", resp, nil)
	case outcome.Reason == ReasonEventNotFound:
		response.RespondJSON(c, "error", http.StatusNotFound, "Event not found", resp, nil)
	case outcome.Reason == ReasonInsufficientCapacity:
		response.RespondJSON(c, "error", http.StatusConflict, "Not enough seats available", resp, nil)
	case outcome.Reason == ReasonBusy:
		c.Header("Retry-After", "1")
		response.RespondJSON(c, "error", http.StatusServiceUnavailable, "Reservation busy, try again", resp, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Reservation failed", resp, nil)
	}
}

// GetBooking handles GET /api/v1/bookings/:id
func (ctrl *controller) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrBookingNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking.ToResponse(), nil)
}

// GetEventBookings handles GET /api/v1/admin/events/:id/bookings
func (ctrl *controller) GetEventBookings(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	bookings, err := ctrl.service.GetBookingsByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, bookings[i].ToResponse())
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", responses, nil)
}

// ListBookings handles GET /api/v1/admin/bookings
func (ctrl *controller) ListBookings(c *gin.Context) {
	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bookings, totalCount, err := ctrl.service.ListBookings(c.Request.Context(), query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, bookings[i].ToResponse())
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", PaginatedBookings{
		Bookings:   responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
	}, nil)
}

// CancelBooking handles DELETE /api/v1/admin/bookings/:id
func (ctrl *controller) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	if err := ctrl.service.CancelBooking(c.Request.Context(), bookingID); err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrBookingNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled", nil, nil)
}
