// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"ticketbooking/internal/bookings"
	"ticketbooking/internal/events"
	"ticketbooking/internal/ledger"
	"ticketbooking/internal/shared/config"
	"ticketbooking/internal/shared/database"
	"ticketbooking/pkg/cache"
	"ticketbooking/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config     *config.Config
	db         *database.DB
	notifier   bookings.Notifier
	eventRepo  events.Repository
	seatLedger ledger.Ledger
	txRunner   database.TxRunner
	seeder     events.CapacitySeeder
}

// NewRouter creates a new router instance. The notifier may be nil when
// outcome notifications are disabled.
func NewRouter(cfg *config.Config, db *database.DB, notifier bookings.Notifier) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	r.setupLedger()

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Event routes first: the booking service resolves events
		// through the event service.
		r.setupEventRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// setupLedger selects the seat-ledger backend. The SQL ledger shares
// the booking transaction; memory and Redis carry their own atomicity
// and pair with the no-op runner, where the compensating release is
// the rollback path.
func (r *Router) setupLedger() {
	backend := r.config.Reservation.LedgerBackend
	lockWait := r.config.Reservation.LockWait

	switch backend {
	case "memory":
		ml := ledger.NewMemoryLedger(ledger.WithLockWait(lockWait))
		r.seatLedger = ml
		r.txRunner = database.NopTxRunner{}
		r.seeder = ml
	case "redis":
		if r.db.GetRedis() == nil {
			logger.GetDefault().Warn("redis ledger backend requested without Redis, falling back to gorm")
			break
		}
		rl := ledger.NewRedisLedger(r.db.GetRedis())
		r.seatLedger = rl
		r.txRunner = database.NopTxRunner{}
		r.seeder = rl
	}

	if r.seatLedger == nil {
		r.seatLedger = ledger.NewGormLedger(r.db.GetPostgreSQL(), ledger.WithLockTimeout(lockWait))
		r.txRunner = r.db
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketbooking-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "ticketbooking-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupEventRoutes configures event management routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	eventRepo := events.NewRepository(r.db.GetPostgreSQL())

	var cacheService cache.Service
	if r.db.GetRedis() != nil {
		cacheService = cache.NewService(r.db.GetRedis())
	}

	var eventOpts []events.ServiceOption
	if r.seeder != nil {
		eventOpts = append(eventOpts, events.WithCapacitySeeder(r.seeder))
	}

	eventService := events.NewService(eventRepo, cacheService, eventOpts...)
	eventController := events.NewController(eventService)

	// Kept for the booking service wiring below: the reservation path
	// reads the event row directly, bypassing the response cache.
	r.eventRepo = eventRepo

	events.SetupEventRoutes(rg, eventController)
}

// setupBookingRoutes configures the reservation routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	store := bookings.NewStore(r.db.GetPostgreSQL())

	opts := []bookings.ServiceOption{}
	if r.config.Reservation.StrictSeatClasses {
		opts = append(opts, bookings.WithStrictSeatClasses())
	}
	if r.notifier != nil {
		opts = append(opts, bookings.WithNotifier(r.notifier))
	}
	if r.config.Reservation.IdempotencyEnabled && r.db.GetRedis() != nil {
		opts = append(opts, bookings.WithIdempotencyCache(cache.NewService(r.db.GetRedis())))
	}

	bookingService := bookings.NewService(r.eventRepo, r.seatLedger, store, r.txRunner, opts...)
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)
}
