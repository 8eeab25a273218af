package bookings

import (
	"ticketbooking/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the seatclass binding rule: the HTTP
// surface only admits members of the closed enumeration, while the
// service keeps the legacy default-to-Standard policy for callers that
// bypass binding.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("seatclass", func(fl validator.FieldLevel) bool {
			return pricing.IsKnownSeatClass(fl.Field().String())
		})
	}
}

func SetupBookingRoutes(router *gin.RouterGroup, controller Controller) {
	RegisterValidations()

	// Public routes - the reservation call and booking lookup
	publicBookings := router.Group("/bookings")
	{
		publicBookings.POST("", controller.Reserve)       // POST /api/v1/bookings - Reserve seats
		publicBookings.GET("/:id", controller.GetBooking) // GET /api/v1/bookings/:id - Booking details
	}

	// Admin routes - booking management
	admin := router.Group("/admin")
	{
		admin.GET("/bookings", controller.ListBookings)              // GET /api/v1/admin/bookings - All bookings
		admin.DELETE("/bookings/:id", controller.CancelBooking)      // DELETE /api/v1/admin/bookings/:id - Cancel booking
		admin.GET("/events/:id/bookings", controller.GetEventBookings) // GET /api/v1/admin/events/:id/bookings - Bookings per event
	}
}
