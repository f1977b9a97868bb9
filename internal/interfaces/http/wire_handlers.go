package http

import (
	"context"

	"github.com/fitdesk/accessgate/internal/interfaces/http/handlers"
	integrationhandlers "github.com/fitdesk/accessgate/internal/interfaces/http/handlers/integration"
	webhookhandlers "github.com/fitdesk/accessgate/internal/interfaces/http/handlers/webhook"
	"github.com/fitdesk/accessgate/internal/interfaces/http/middleware"
)

type allHandlers struct {
	healthHandler      *handlers.HealthHandler
	integrationHandler *integrationhandlers.Handler
	webhookHandler     *webhookhandlers.Handler
	webhookRateLimiter *middleware.RateLimiter
}

func (c *Container) initHandlers() {
	u := c.ucs

	deps := map[string]handlers.Pinger{
		"database": handlers.PingerFunc(func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
		"redis": handlers.PingerFunc(func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}),
	}

	c.hdlrs = &allHandlers{
		healthHandler: handlers.NewHealthHandler(deps, c.log.Named("health")),
		integrationHandler: integrationhandlers.NewHandler(integrationhandlers.UseCases{
			SaveCredential:       u.saveCredential,
			GetCredential:        u.getCredential,
			DeactivateCredential: u.deactivateCredential,
			TestConnection:       u.testConnection,
			SyncDevices:          u.syncDevices,
			GetDevices:           u.getDevices,
			OpenDoor:             u.openDoor,
			GrantAccess:          u.grantAccess,
			RevokeAccess:         u.revokeAccess,
			ListPrivileges:       u.listPrivileges,
		}, c.supervisor, c.log.Named("api")),
		webhookHandler: webhookhandlers.NewHandler(c.repos.credentialRepo, c.webhookIntake, c.log.Named("webhook")),
		webhookRateLimiter: middleware.NewRateLimiter(
			c.redis,
			c.cfg.Ingestion.WebhookRateLimit,
			c.cfg.Ingestion.WebhookRateWindow,
			c.log.Named("ratelimit"),
		),
	}
}
