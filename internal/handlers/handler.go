package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "thermal_guard/docs"
	"thermal_guard/internal/logger"
	"thermal_guard/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may
// be nil, in which case /metrics is not served.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// live heater states and events, same port
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
		h.registerHeaterRoutes(api)
		h.registerConfigRoutes(api)
		h.registerLogRoutes(api)
		api.GET("/endstops", h.getEndstops)
		h.registerSimRoutes(api)
	}
}

func (h *Handler) registerHeaterRoutes(api *gin.RouterGroup) {
	heaters := api.Group("/heaters")
	{
		heaters.GET("", h.listHeaters)
		heaters.GET("/:channel", h.getHeater)
		// Body example: {"target_c":210}
		heaters.POST("/:channel/target", h.setTarget)
		heaters.POST("/:channel/acknowledge", h.acknowledge)
	}
}

func (h *Handler) registerConfigRoutes(api *gin.RouterGroup) {
	cfg := api.Group("/config")
	{
		cfg.GET("", h.getConfig)
		cfg.GET("/defines", h.listDefines)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}

func (h *Handler) registerSimRoutes(api *gin.RouterGroup) {
	sim := api.Group("/sim")
	{
		sim.POST("/faults", h.injectFault)
		sim.POST("/endstops", h.setSimEndstop)
	}
}
