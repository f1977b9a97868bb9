package routes

import (
	"github.com/gin-gonic/gin"

	webhookhandlers "github.com/fitdesk/accessgate/internal/interfaces/http/handlers/webhook"
	"github.com/fitdesk/accessgate/internal/interfaces/http/middleware"
)

type WebhookRouteConfig struct {
	Handler     *webhookhandlers.Handler
	RateLimiter *middleware.RateLimiter
}

// SetupWebhookRoutes registers provider push endpoints. They authenticate by shared secret.
func SetupWebhookRoutes(engine *gin.Engine, config *WebhookRouteConfig) {
	hooks := engine.Group("/webhooks")
	{
		handlers := []gin.HandlerFunc{config.Handler.Receive}
		if config.RateLimiter != nil {
			handlers = append([]gin.HandlerFunc{config.RateLimiter.LimitByParam("branchId")}, handlers...)
		}
		hooks.POST("/hikvision/:branchId", handlers...)
	}
}
