package events

import (
	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - anyone can browse events
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.GetAllEvents)               // GET /api/v1/events - Browse all events
		publicEvents.GET("/upcoming", controller.GetUpcomingEvents) // GET /api/v1/events/upcoming - Browse upcoming events
		publicEvents.GET("/:id", controller.GetEvent)               // GET /api/v1/events/:id - Get event details
	}

	// Admin routes - event management
	adminEvents := router.Group("/admin/events")
	{
		adminEvents.POST("", controller.CreateEvent)       // POST /api/v1/admin/events - Create event
		adminEvents.PUT("/:id", controller.UpdateEvent)    // PUT /api/v1/admin/events/:id - Update event
		adminEvents.DELETE("/:id", controller.DeleteEvent) // DELETE /api/v1/admin/events/:id - Delete event
	}
}
