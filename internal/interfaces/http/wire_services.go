package http

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/fitdesk/accessgate/internal/application/integration/services"
	"github.com/fitdesk/accessgate/internal/infrastructure/cache"
	"github.com/fitdesk/accessgate/internal/infrastructure/config"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/infrastructure/pubsub"
	"github.com/fitdesk/accessgate/internal/infrastructure/scheduler"
	"github.com/fitdesk/accessgate/internal/infrastructure/token"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// InitRedis creates and tests the Redis client connection.
func InitRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		_ = redisClient.Close()
		return nil, err
	}
	log.Infow("Redis connection established successfully", "addr", cfg.Redis.GetAddr())
	return redisClient, nil
}

// initServices builds the provider client stack and the ingestion services.
func (c *Container) initServices() error {
	httpClient := hikvision.NewHTTPClient(c.cfg.Provider.RequestTimeout)

	c.tokenManager = token.NewManager(
		hikvision.NewAuthenticator(httpClient),
		c.cfg.Provider,
		c.log.Named("token"),
		token.WithClock(c.clock),
	)
	c.branchRouter = services.NewBranchRouter(c.repos.credentialRepo, c.tokenManager, httpClient, c.log.Named("router"))

	c.pipeline = services.NewPipeline(
		c.repos.eventRepo,
		cache.NewEventClaimStore(c.redis),
		c.cfg.Ingestion,
		c.clock,
		c.log.Named("pipeline"),
	)
	c.eventBus = pubsub.NewRedisAccessEventBus(c.redis, c.log.Named("eventbus"))
	c.pipeline.Subscribe(c.eventBus)

	c.supervisor = services.NewPollSupervisor(
		c.branchRouter,
		c.repos.credentialRepo,
		c.pipeline,
		cache.NewOffsetStore(c.redis),
		c.cfg.Ingestion,
		c.clock,
		c.log.Named("poller"),
	)
	c.webhookIntake = services.NewWebhookIntake(
		c.pipeline,
		c.cfg.Ingestion.WebhookQueueSize,
		c.cfg.Ingestion.WebhookWorkers,
		c.log.Named("webhook"),
	)

	schedulerManager, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return err
	}
	c.schedulerManager = schedulerManager
	return nil
}
