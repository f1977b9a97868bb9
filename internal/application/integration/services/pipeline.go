package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/config"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const (
	defaultClaimTTL = 2 * time.Minute
	defaultDoneTTL  = 72 * time.Hour
)

// EventConsumer receives every normalized event once. Returning nil acknowledges it;
// an error makes the event eligible for redelivery.
type EventConsumer interface {
	HandleEvent(ctx context.Context, event *accesscontrol.Event) error
}

// EventConsumerFunc adapts a function to EventConsumer.
type EventConsumerFunc func(ctx context.Context, event *accesscontrol.Event) error

func (f EventConsumerFunc) HandleEvent(ctx context.Context, event *accesscontrol.Event) error {
	return f(ctx, event)
}

// ClaimStore reserves event ids across instances. A lost claim reports done
// only when the holder finished the event.
type ClaimStore interface {
	Claim(ctx context.Context, eventID string, ttl time.Duration) (claimed, done bool, err error)
	MarkDone(ctx context.Context, eventID string, ttl time.Duration) error
	Release(ctx context.Context, eventID string) error
}

// ProcessResult summarizes one batch. MaxOffset covers rejected events too,
// since they are consumed as far as the provider is concerned.
// InFlight counts events another delivery is still processing; their outcome
// is unknown, so the batch must not be acknowledged yet.
type ProcessResult struct {
	Accepted   int
	Duplicates int
	InFlight   int
	Rejected   int
	Failed     int
	MaxOffset  int64
}

// Pipeline normalizes, deduplicates, persists and fans out provider events.
// Polling and webhook deliveries share one pipeline.
type Pipeline struct {
	events   accesscontrol.EventRepository
	claims   ClaimStore
	clock    biztime.Clock
	logger   logger.Interface
	claimTTL time.Duration
	doneTTL  time.Duration

	mu        sync.RWMutex
	consumers []EventConsumer
}

func NewPipeline(
	events accesscontrol.EventRepository,
	claims ClaimStore,
	cfg config.IngestionConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *Pipeline {
	p := &Pipeline{
		events:   events,
		claims:   claims,
		clock:    clock,
		logger:   logger,
		claimTTL: cfg.ClaimTTL,
		doneTTL:  cfg.DoneTTL,
	}
	if p.claimTTL <= 0 {
		p.claimTTL = defaultClaimTTL
	}
	if p.doneTTL <= 0 {
		p.doneTTL = defaultDoneTTL
	}
	if p.clock == nil {
		p.clock = biztime.SystemClock()
	}
	return p
}

// Subscribe registers a consumer for all subsequently processed events.
func (p *Pipeline) Subscribe(c EventConsumer) {
	p.mu.Lock()
	p.consumers = append(p.consumers, c)
	p.mu.Unlock()
}

// Process handles a batch in order. It never returns an error; failures are counted
// and logged so the caller can decide whether to acknowledge.
func (p *Pipeline) Process(ctx context.Context, branchID string, source accesscontrol.EventSource, raws []hikvision.RawEvent) ProcessResult {
	var res ProcessResult
	now := p.clock.Now()

	for _, raw := range raws {
		if raw.Offset > res.MaxOffset {
			res.MaxOffset = raw.Offset
		}

		event, err := NormalizeEvent(branchID, source, raw, now)
		if err != nil {
			res.Rejected++
			p.logger.Warnw("provider event rejected",
				"branch_id", branchID,
				"offset", raw.Offset,
				"event_id", raw.EventID,
				"category", raw.Category,
				"error", err,
			)
			continue
		}

		switch p.processOne(ctx, event) {
		case outcomeAccepted:
			res.Accepted++
		case outcomeDuplicate:
			res.Duplicates++
		case outcomeInFlight:
			res.InFlight++
		default:
			res.Failed++
		}
	}

	if res.Accepted > 0 || res.Failed > 0 || res.InFlight > 0 {
		p.logger.Infow("event batch processed",
			"branch_id", branchID,
			"source", source,
			"accepted", res.Accepted,
			"duplicates", res.Duplicates,
			"in_flight", res.InFlight,
			"rejected", res.Rejected,
			"failed", res.Failed,
			"max_offset", res.MaxOffset,
		)
	}
	return res
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeInFlight
	outcomeFailed
)

func (p *Pipeline) processOne(ctx context.Context, event *accesscontrol.Event) outcome {
	eventID := event.EventID()

	claimed, done, err := p.claims.Claim(ctx, eventID, p.claimTTL)
	if err != nil {
		p.fail(event, err)
		return outcomeFailed
	}
	if done {
		p.logger.Debugw("duplicate event skipped", "branch_id", event.BranchID(), "event_id", eventID)
		return outcomeDuplicate
	}
	if !claimed {
		p.logger.Debugw("event in flight on another delivery", "branch_id", event.BranchID(), "event_id", eventID)
		return outcomeInFlight
	}

	stored, err := p.events.SaveIfAbsent(ctx, event)
	if err != nil {
		p.release(ctx, event, err)
		return outcomeFailed
	}
	if stored.IsProcessed() {
		// the claim expired after an earlier delivery completed
		p.markDone(ctx, eventID)
		return outcomeDuplicate
	}

	if err := p.deliver(ctx, stored); err != nil {
		p.release(ctx, event, err)
		return outcomeFailed
	}

	if _, err := p.events.MarkProcessed(ctx, eventID, p.clock.Now()); err != nil {
		p.release(ctx, event, err)
		return outcomeFailed
	}
	p.markDone(ctx, eventID)
	return outcomeAccepted
}

func (p *Pipeline) deliver(ctx context.Context, event *accesscontrol.Event) error {
	p.mu.RLock()
	consumers := append([]EventConsumer(nil), p.consumers...)
	p.mu.RUnlock()

	for i, c := range consumers {
		if err := c.HandleEvent(ctx, event); err != nil {
			return fmt.Errorf("consumer %d: %w", i, err)
		}
	}
	return nil
}

func (p *Pipeline) markDone(ctx context.Context, eventID string) {
	if err := p.claims.MarkDone(ctx, eventID, p.doneTTL); err != nil {
		p.logger.Warnw("failed to mark event claim done", "event_id", eventID, "error", err)
	}
}

func (p *Pipeline) release(ctx context.Context, event *accesscontrol.Event, cause error) {
	p.fail(event, cause)
	if err := p.claims.Release(ctx, event.EventID()); err != nil {
		p.logger.Warnw("failed to release event claim", "event_id", event.EventID(), "error", err)
	}
}

func (p *Pipeline) fail(event *accesscontrol.Event, cause error) {
	err := &accesscontrol.IngestionError{
		Kind:     accesscontrol.IngestionProcessFailed,
		BranchID: event.BranchID(),
		Offset:   event.Offset(),
		EventID:  event.EventID(),
		Err:      cause,
	}
	p.logger.Errorw("event processing failed",
		"branch_id", event.BranchID(),
		"offset", event.Offset(),
		"event_id", event.EventID(),
		"error", err,
	)
}
