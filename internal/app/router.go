package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"fleetflow/internal/auth"
	"fleetflow/internal/handler"
	"fleetflow/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	VehicleHandler     *handler.VehicleHandler
	DriverHandler      *handler.DriverHandler
	TripHandler        *handler.TripHandler
	MaintenanceHandler *handler.MaintenanceHandler
	FuelHandler        *handler.FuelHandler
	AnalyticsHandler   *handler.AnalyticsHandler

	// Tokens verifies role tokens. Nil disables authentication.
	Tokens *auth.Service

	// RedisClient backs idempotent replay. Nil disables it.
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
	Logger      log.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.ErrorKindMiddleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authn := middleware.NewAuthMiddleware(deps.Tokens)
	read := authn.Require(auth.CapRead)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequestLogger(deps.Logger))
	v1.Use(authn.Authenticate())
	if deps.RedisClient != nil {
		v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))
	}
	{
		vehicles := v1.Group("/vehicles")
		write := authn.Require(auth.CapManageVehicles)
		{
			vehicles.GET("", read, deps.VehicleHandler.List)
			vehicles.GET("/:id", read, deps.VehicleHandler.Get)
			vehicles.POST("", write, deps.VehicleHandler.Create)
			vehicles.PUT("/:id", write, deps.VehicleHandler.Update)
			vehicles.DELETE("/:id", write, deps.VehicleHandler.Delete)
			vehicles.PATCH("/:id/retire", write, deps.VehicleHandler.ToggleRetire)
		}

		drivers := v1.Group("/drivers")
		manage := authn.Require(auth.CapManageDrivers)
		profile := authn.Require(auth.CapEditDriverProfiles)
		{
			drivers.GET("", read, deps.DriverHandler.List)
			drivers.GET("/:id", read, deps.DriverHandler.Get)
			drivers.POST("", manage, deps.DriverHandler.Create)
			drivers.PUT("/:id", profile, deps.DriverHandler.Update)
			drivers.PATCH("/:id/status", profile, deps.DriverHandler.SetStatus)
			drivers.DELETE("/:id", manage, deps.DriverHandler.Delete)
		}

		trips := v1.Group("/trips")
		write = authn.Require(auth.CapManageTrips)
		{
			trips.GET("", read, deps.TripHandler.List)
			trips.GET("/:id", read, deps.TripHandler.Get)
			trips.POST("", write, deps.TripHandler.Create)
			trips.PATCH("/:id/dispatch", write, deps.TripHandler.Dispatch)
			trips.PATCH("/:id/complete", write, deps.TripHandler.Complete)
			trips.PATCH("/:id/cancel", write, deps.TripHandler.Cancel)
			trips.DELETE("/:id", write, deps.TripHandler.Delete)
		}

		maintenance := v1.Group("/maintenance")
		write = authn.Require(auth.CapManageMaintenance)
		{
			maintenance.GET("", read, deps.MaintenanceHandler.List)
			maintenance.GET("/:id", read, deps.MaintenanceHandler.Get)
			maintenance.POST("", write, deps.MaintenanceHandler.Create)
			maintenance.PUT("/:id", write, deps.MaintenanceHandler.Update)
			maintenance.PATCH("/:id/resolve", write, deps.MaintenanceHandler.Resolve)
			maintenance.DELETE("/:id", write, deps.MaintenanceHandler.Delete)
		}

		fuel := v1.Group("/fuel")
		write = authn.Require(auth.CapManageFuel)
		{
			fuel.GET("", read, deps.FuelHandler.List)
			fuel.GET("/:id", read, deps.FuelHandler.Get)
			fuel.POST("", write, deps.FuelHandler.Create)
			fuel.PUT("/:id", write, deps.FuelHandler.Update)
			fuel.DELETE("/:id", write, deps.FuelHandler.Delete)
		}

		analytics := v1.Group("/analytics", read)
		{
			analytics.GET("/dashboard", deps.AnalyticsHandler.Dashboard)
			analytics.GET("/vehicle-costs", deps.AnalyticsHandler.VehicleCosts)
			analytics.GET("/driver-stats", deps.AnalyticsHandler.DriverStats)
		}
	}

	return router
}
