package handlers

import (
	"voltage_sweeper/internal/logger"
	"voltage_sweeper/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live progress stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerSweepRoutes(api)
		h.registerLogRoutes(api)
		h.registerProfileRoutes(api)
		// Serial port discovery, used by the configuration UI only.
		api.GET("/ports", h.listSerialPorts)
	}
}

func (h *Handler) registerSweepRoutes(api *gin.RouterGroup) {
	sw := api.Group("/sweep")
	{
		sw.POST("/start", h.startSweep)
		sw.POST("/stop", h.stopSweep)
		sw.GET("/status", h.getStatus)
		sw.GET("/runs", h.listRuns)
		sw.GET("/runs/:id/samples", h.getRunSamples)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

func (h *Handler) registerProfileRoutes(api *gin.RouterGroup) {
	profiles := api.Group("/profiles")
	{
		profiles.GET("/", h.listProfiles)
		profiles.POST("/", h.saveProfile)
		profiles.GET("/:id", h.getProfile)
		profiles.DELETE("/:id", h.deleteProfile)
	}
}
