package routes

import (
	"todolists/internal/adapter/http/handler"
	"todolists/internal/core/telemetry"
	. "todolists/pkg/auth"
	. "todolists/pkg/config"
	. "todolists/pkg/middlewares"

	"github.com/gin-gonic/gin"
)

type HandlersConfig struct {
	ListHandler         *handler.ListHandler
	ItemHandler         *handler.ItemHandler
	SignalHandler       *handler.SignalHandler
	NotificationHandler *handler.NotificationHandler
	JobHandler          *handler.JobHandler
	HealthHandler       *handler.HealthHandler
}

func SetupRouter(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *LokiLogger) *gin.Engine {
	return SetupRouterWithConfig(handlers, metrics, logger, GetDefaultConfig())
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *LokiLogger, config *AppConfig) *gin.Engine {
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	SetupGinMiddlewareWithConfig(router, config.Telemetry.ServiceName, metrics, logger, config)

	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	registerRoutes(router, handlers, config.Auth.DeviceKeyHash)

	return router
}

func registerRoutes(router *gin.Engine, handlers HandlersConfig, deviceKeyHash string) {
	if handlers.HealthHandler != nil {
		router.GET("/health", handlers.HealthHandler.Health)
	}

	if handlers.ListHandler != nil {
		setupListRoutes(router, handlers.ListHandler)
	}

	if handlers.ItemHandler != nil {
		setupItemRoutes(router, handlers.ItemHandler)
	}

	device := router.Group("/")
	device.Use(GinDeviceKeyMiddleware(deviceKeyHash))
	{
		if handlers.SignalHandler != nil {
			device.POST("/signals/boot", handlers.SignalHandler.Boot)
			device.GET("/signals/permissions", handlers.SignalHandler.GetPermissions)
			device.POST("/signals/permissions", handlers.SignalHandler.SetPermission)
			device.POST("/signals/location", handlers.SignalHandler.ReportLocation)
		}

		if handlers.NotificationHandler != nil {
			device.GET("/notifications", handlers.NotificationHandler.GetNotifications)
			device.PUT("/notifications/enabled", handlers.NotificationHandler.SetEnabled)
			device.POST("/notifications/actions/:token", handlers.NotificationHandler.PerformAction)
		}

		if handlers.JobHandler != nil {
			device.GET("/jobs", handlers.JobHandler.GetJobs)
			device.GET("/jobs/stats", handlers.JobHandler.GetJobStats)
		}
	}
}

func setupListRoutes(router *gin.Engine, listHandler *handler.ListHandler) {
	lists := router.Group("/lists")
	{
		lists.GET("", listHandler.GetLists)
		lists.POST("", listHandler.CreateList)
		lists.GET("/stream", listHandler.StreamLists)
		lists.GET("/:id", listHandler.GetList)
		lists.PATCH("/:id", listHandler.RenameList)
		lists.DELETE("/:id", listHandler.DeleteList)
		lists.POST("/:id/move", listHandler.MoveList)
		lists.PUT("/:id/reminder", listHandler.SetReminder)
		lists.GET("/:id/stream", listHandler.StreamList)
		lists.DELETE("/:id/completed", listHandler.DeleteCompleted)
	}
}

func setupItemRoutes(router *gin.Engine, itemHandler *handler.ItemHandler) {
	router.POST("/lists/:id/items", itemHandler.CreateItem)

	items := router.Group("/items")
	{
		items.PATCH("/:id", itemHandler.UpdateItem)
		items.POST("/:id/move", itemHandler.MoveItem)
		items.DELETE("/:id", itemHandler.DeleteItem)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-Device-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouterForTests wires the routes without telemetry, rate limiting or
// HTTPS enforcement.
func SetupRouterForTests(handlers HandlersConfig, deviceKeyHash string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(CurrentMiddleware())
	router.Use(corsMiddleware())

	registerRoutes(router, handlers, deviceKeyHash)

	return router
}
