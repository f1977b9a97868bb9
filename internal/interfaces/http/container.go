package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fitdesk/accessgate/internal/application/integration/services"
	"github.com/fitdesk/accessgate/internal/infrastructure/config"
	"github.com/fitdesk/accessgate/internal/infrastructure/pubsub"
	"github.com/fitdesk/accessgate/internal/infrastructure/scheduler"
	"github.com/fitdesk/accessgate/internal/infrastructure/token"
	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// Container holds infrastructure, repositories, use cases, handlers and
// background services, wired together. Shutdown stops them in reverse order.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	redis  *redis.Client
	cfg    *config.Config
	log    logger.Interface
	clock  biztime.Clock

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	// Provider access
	tokenManager *token.Manager
	branchRouter *services.BranchRouter

	// Ingestion and background work
	pipeline         *services.Pipeline
	eventBus         *pubsub.RedisAccessEventBus
	supervisor       *services.PollSupervisor
	webhookIntake    *services.WebhookIntake
	schedulerManager *scheduler.SchedulerManager
}

// NewContainer creates a Container with all dependencies wired together.
func NewContainer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		redis:  redisClient,
		cfg:    cfg,
		log:    log,
		clock:  biztime.SystemClock(),
	}

	c.repos = newRepositories(db, log.Named("repository"))
	if err := c.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	c.initUseCases()
	c.initHandlers()

	return c, nil
}

// Start launches the webhook workers, the device sync schedule and, when
// configured, polling for every active branch. Pollers that fail to start are
// reported but do not abort startup.
func (c *Container) Start(ctx context.Context) error {
	c.webhookIntake.Start(ctx)

	if err := c.schedulerManager.RegisterDeviceSyncJob(c.cfg.Scheduler.DeviceSyncInterval, c.ucs.syncAllDevicesJob); err != nil {
		return fmt.Errorf("failed to register device sync job: %w", err)
	}
	c.schedulerManager.Start()

	if c.cfg.Ingestion.AutoStart {
		if err := c.supervisor.StartAll(ctx); err != nil {
			c.log.Warnw("some branch pollers failed to start", "error", err)
		}
	}
	return nil
}

// Shutdown stops background work. Pollers stop first so no new events enter
// the pipeline, then the webhook queue drains.
func (c *Container) Shutdown() error {
	var errs []error

	c.supervisor.StopAll()
	c.webhookIntake.Stop()

	if err := c.schedulerManager.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	return errors.Join(errs...)
}
