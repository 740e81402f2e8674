package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"github.com/juan345ot/GoTaxi-sub000/internal/handler"
	"github.com/juan345ot/GoTaxi-sub000/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler *handler.TripHandler
	UserHandler *handler.UserHandler
	WSHandler   *handler.WSHandler
	JWTSecret   []byte
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(deps.JWTSecret)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.POST("/login", deps.UserHandler.Login)
			users.GET("/me", auth, deps.UserHandler.Me)
		}

		// Trip lifecycle routes.
		trips := v1.Group("/trips", auth)
		{
			trips.POST("", deps.TripHandler.CreateTrip)
			trips.GET("", deps.TripHandler.ListTrips)
			trips.GET("/stats", deps.TripHandler.GetStats)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/receipt", deps.TripHandler.GetReceipt)
			trips.POST("/:id/assign", deps.TripHandler.AssignDriver)
			trips.POST("/:id/select", deps.TripHandler.SelectDriver)
			trips.POST("/:id/confirm", deps.TripHandler.ConfirmTrip)
			trips.POST("/:id/reject", deps.TripHandler.RejectTrip)
			trips.POST("/:id/status", deps.TripHandler.UpdateStatus)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
		}

		// Live status push.
		v1.GET("/ws", auth, deps.WSHandler.Connect)
	}

	return router
}
