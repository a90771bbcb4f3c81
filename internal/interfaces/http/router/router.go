// Package router assembles the gin engine and its middleware stack.
package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/interfaces/http/handler"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar registers a handler's routes on the versioned API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration.
type Router struct {
	engine     *gin.Engine
	registrars []RouteRegistrar
}

// New creates the gin engine with the standard middleware stack.
func New(cfg config.AppConfig, telemetryEnabled bool, log *zap.Logger) *Router {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if telemetryEnabled {
		engine.Use(otelgin.Middleware(cfg.Name))
	}

	return &Router{engine: engine}
}

// Register adds a RouteRegistrar.
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts health probes and all registered routes under /api/v1.
func (r *Router) Setup(health *handler.HealthHandler) *gin.Engine {
	r.engine.GET("/health", health.Health)
	r.engine.GET("/ready", health.Ready)

	api := r.engine.Group("/api/v1")
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return r.engine
}
