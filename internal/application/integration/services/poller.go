package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/goroutine"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 50
	offsetSaveTimeout   = 5 * time.Second
)

// PollerState is the phase of a branch poller.
type PollerState string

const (
	PollerIdle          PollerState = "idle"
	PollerPolling       PollerState = "polling"
	PollerProcessing    PollerState = "processing"
	PollerAcknowledging PollerState = "acknowledging"
	PollerStopped       PollerState = "stopped"
)

// ClientResolver returns the provider client of a branch.
type ClientResolver interface {
	Resolve(ctx context.Context, branchID string) (*hikvision.Client, error)
}

// OffsetStore persists the acknowledged offset of each branch.
type OffsetStore interface {
	GetOffset(ctx context.Context, branchID string) (int64, error)
	SaveOffset(ctx context.Context, branchID string, offset int64) error
}

// PollerStatus is a snapshot of a poller.
type PollerStatus struct {
	BranchID       string
	Running        bool
	State          PollerState
	LastOffset     int64
	LastError      string
	LastPollAt     time.Time
	EventsAccepted int64
}

// BranchPoller pulls events of one branch on a timer. Cycles never overlap:
// the next one is scheduled only after the previous finished.
type BranchPoller struct {
	branchID  string
	resolver  ClientResolver
	pipeline  *Pipeline
	offsets   OffsetStore
	interval  time.Duration
	batchSize int
	clock     biztime.Clock
	logger    logger.Interface

	mu         sync.Mutex
	running    bool
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	timer      *time.Timer
	wg         sync.WaitGroup

	state      PollerState
	offset     int64
	lastError  string
	lastPollAt time.Time
	accepted   int64
}

func NewBranchPoller(
	branchID string,
	resolver ClientResolver,
	pipeline *Pipeline,
	offsets OffsetStore,
	interval time.Duration,
	batchSize int,
	clock biztime.Clock,
	logger logger.Interface,
) *BranchPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if clock == nil {
		clock = biztime.SystemClock()
	}
	return &BranchPoller{
		branchID:  branchID,
		resolver:  resolver,
		pipeline:  pipeline,
		offsets:   offsets,
		interval:  interval,
		batchSize: batchSize,
		clock:     clock,
		logger:    logger.With("branch_id", branchID),
		state:     PollerStopped,
	}
}

// Start loads the persisted offset and schedules an immediate first cycle.
// Calling Start on a running poller does nothing. The poller outlives ctx cancellation;
// only Stop ends it.
func (p *BranchPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	saved, err := p.offsets.GetOffset(ctx, p.branchID)
	if err != nil {
		p.logger.Warnw("failed to load poll offset, keeping in-memory offset", "offset", p.offset, "error", err)
	} else if saved > p.offset {
		p.offset = saved
	}

	p.running = true
	p.generation++
	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	p.state = PollerIdle
	p.scheduleLocked(p.generation, 0)

	p.logger.Infow("branch poller started", "offset", p.offset, "interval", p.interval.String())
	return nil
}

// Stop cancels the in-flight request and the pending timer and waits for a running cycle.
// It is safe to call in any state.
func (p *BranchPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.generation++
	gen := p.generation
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	// a Start during the wait owns the state now
	if !p.running && gen == p.generation {
		p.state = PollerStopped
	}
	p.mu.Unlock()
	p.logger.Infow("branch poller stopped")
}

func (p *BranchPoller) Status() PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollerStatus{
		BranchID:       p.branchID,
		Running:        p.running,
		State:          p.state,
		LastOffset:     p.offset,
		LastError:      p.lastError,
		LastPollAt:     p.lastPollAt,
		EventsAccepted: p.accepted,
	}
}

func (p *BranchPoller) scheduleLocked(gen uint64, delay time.Duration) {
	p.timer = time.AfterFunc(delay, func() {
		goroutine.SafeGo(p.logger, "branch-poller", func() { p.run(gen) })
	})
}

func (p *BranchPoller) run(gen uint64) {
	p.mu.Lock()
	// a timer that fired after Stop or a restart belongs to a dead generation
	if !p.running || gen != p.generation {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.wg.Add(1)
	p.mu.Unlock()

	drained := p.cycle(ctx)
	p.wg.Done()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || gen != p.generation {
		return
	}
	delay := p.interval
	if !drained {
		delay = 0
	}
	p.scheduleLocked(gen, delay)
}

// cycle runs one poll. It returns false when a full batch was acknowledged and
// more events are likely waiting.
func (p *BranchPoller) cycle(ctx context.Context) bool {
	p.mu.Lock()
	offset := p.offset
	p.state = PollerPolling
	p.mu.Unlock()

	client, err := p.resolver.Resolve(ctx, p.branchID)
	if err != nil {
		p.finish(ctx, accesscontrol.IngestionPollFailed, offset, err)
		return true
	}

	batch, err := client.PollMessages(ctx, offset, p.batchSize)
	if err != nil {
		p.finish(ctx, accesscontrol.IngestionPollFailed, offset, err)
		return true
	}

	p.mu.Lock()
	p.lastPollAt = p.clock.Now()
	p.mu.Unlock()

	if len(batch.Events) == 0 {
		p.finish(ctx, "", offset, nil)
		return true
	}

	p.setState(PollerProcessing)
	res := p.pipeline.Process(ctx, p.branchID, accesscontrol.EventSourcePoll, batch.Events)
	p.mu.Lock()
	p.accepted += int64(res.Accepted)
	p.mu.Unlock()

	if res.Failed > 0 {
		// leave the batch unacknowledged so the provider serves it again
		p.finish(ctx, accesscontrol.IngestionProcessFailed, offset, errFailedEvents(res.Failed))
		return true
	}
	if res.InFlight > 0 {
		// another delivery may still fail; re-poll once it settled
		p.logger.Debugw("batch left unacknowledged, events in flight", "offset", offset, "in_flight", res.InFlight)
		p.finish(ctx, "", offset, nil)
		return true
	}

	ack := res.MaxOffset
	if ack <= offset {
		p.finish(ctx, "", offset, nil)
		return true
	}

	p.setState(PollerAcknowledging)
	if err := client.AckMessages(ctx, ack); err != nil {
		p.finish(ctx, accesscontrol.IngestionAckFailed, offset, err)
		return true
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), offsetSaveTimeout)
	defer cancel()
	if err := p.offsets.SaveOffset(saveCtx, p.branchID, ack); err != nil {
		p.logger.Warnw("failed to persist poll offset", "offset", ack, "error", err)
	}

	p.mu.Lock()
	p.offset = ack
	p.mu.Unlock()
	p.finish(ctx, "", ack, nil)

	return len(batch.Events) < p.batchSize
}

func (p *BranchPoller) setState(s PollerState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// finish returns the poller to idle and records the cycle error, if any.
func (p *BranchPoller) finish(ctx context.Context, kind accesscontrol.IngestionErrorKind, offset int64, cause error) {
	p.mu.Lock()
	p.state = PollerIdle
	if cause == nil {
		p.lastError = ""
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if ctx.Err() != nil {
		// shutdown in progress
		return
	}

	err := &accesscontrol.IngestionError{Kind: kind, BranchID: p.branchID, Offset: offset, Err: cause}
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()
	p.logger.Errorw("poll cycle failed", "kind", kind, "offset", offset, "error", err)
}

type errFailedEvents int

func (n errFailedEvents) Error() string {
	return fmt.Sprintf("%d events failed processing", int(n))
}
