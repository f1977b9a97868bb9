package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/goroutine"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const (
	defaultWebhookQueueSize = 256
	defaultWebhookWorkers   = 4
)

var (
	ErrQueueFull     = errors.New("webhook queue is full")
	ErrIntakeStopped = errors.New("webhook intake is stopped")
)

type webhookJob struct {
	branchID string
	events   []hikvision.RawEvent
}

// WebhookIntake decouples webhook acknowledgement from processing. Pushed
// events go through the same pipeline as polled ones.
type WebhookIntake struct {
	pipeline *Pipeline
	workers  int
	logger   logger.Interface

	mu      sync.RWMutex
	queue   chan webhookJob
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWebhookIntake(pipeline *Pipeline, queueSize, workers int, logger logger.Interface) *WebhookIntake {
	if queueSize <= 0 {
		queueSize = defaultWebhookQueueSize
	}
	if workers <= 0 {
		workers = defaultWebhookWorkers
	}
	return &WebhookIntake{
		pipeline: pipeline,
		workers:  workers,
		logger:   logger,
		queue:    make(chan webhookJob, queueSize),
	}
}

// Start launches the workers. Jobs enqueued before Start wait in the queue.
func (w *WebhookIntake) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	w.ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for i := 0; i < w.workers; i++ {
		goroutine.SafeGoWG(w.logger, fmt.Sprintf("webhook-worker-%d", i), &w.wg, w.work)
	}
	w.logger.Infow("webhook intake started", "workers", w.workers, "queue_size", cap(w.queue))
}

// Enqueue hands a batch to the workers without blocking.
func (w *WebhookIntake) Enqueue(branchID string, events []hikvision.RawEvent) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrIntakeStopped
	}
	select {
	case w.queue <- webhookJob{branchID: branchID, events: events}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new batches, drains the queue and waits for the workers.
func (w *WebhookIntake) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	started := w.started
	w.mu.Unlock()

	if started {
		w.wg.Wait()
		w.cancel()
	}
	w.logger.Infow("webhook intake stopped")
}

func (w *WebhookIntake) work() {
	for job := range w.queue {
		res := w.pipeline.Process(w.ctx, job.branchID, accesscontrol.EventSourceWebhook, job.events)
		w.logger.Debugw("webhook batch processed",
			"branch_id", job.branchID,
			"accepted", res.Accepted,
			"duplicates", res.Duplicates,
			"in_flight", res.InFlight,
			"rejected", res.Rejected,
			"failed", res.Failed,
		)
	}
}
