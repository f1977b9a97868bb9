package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fitdesk/accessgate/internal/infrastructure/config"
	"github.com/fitdesk/accessgate/internal/interfaces/http/middleware"
	"github.com/fitdesk/accessgate/internal/interfaces/http/routes"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	container *Container
}

// NewRouter wires every dependency and returns a router ready for SetupRoutes.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Router, error) {
	container, err := NewContainer(db, redisClient, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Router{container: container}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	c := r.container
	engine := c.engine

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(c.log.Named("http")))
	engine.Use(middleware.Recovery(c.log.Named("http")))

	engine.GET("/health", c.hdlrs.healthHandler.HealthCheck)

	routes.SetupIntegrationRoutes(engine, &routes.IntegrationRouteConfig{
		Handler: c.hdlrs.integrationHandler,
	})
	routes.SetupWebhookRoutes(engine, &routes.WebhookRouteConfig{
		Handler:     c.hdlrs.webhookHandler,
		RateLimiter: c.hdlrs.webhookRateLimiter,
	})
}

// GetEngine returns the gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.container.engine
}

// Start launches background services. Call after SetupRoutes.
func (r *Router) Start(ctx context.Context) error {
	return r.container.Start(ctx)
}

// Shutdown gracefully stops background services.
func (r *Router) Shutdown() error {
	return r.container.Shutdown()
}
