package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/config"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// CredentialResolver loads the active credential of a branch.
type CredentialResolver interface {
	ClientResolver
	Credential(ctx context.Context, branchID string) (*accesscontrol.Credential, error)
}

// PollSupervisor owns one BranchPoller per branch.
type PollSupervisor struct {
	resolver  CredentialResolver
	creds     accesscontrol.CredentialRepository
	pipeline  *Pipeline
	offsets   OffsetStore
	interval  time.Duration
	batchSize int
	clock     biztime.Clock
	logger    logger.Interface

	mu      sync.Mutex
	pollers map[string]*BranchPoller
}

func NewPollSupervisor(
	resolver CredentialResolver,
	creds accesscontrol.CredentialRepository,
	pipeline *Pipeline,
	offsets OffsetStore,
	cfg config.IngestionConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *PollSupervisor {
	return &PollSupervisor{
		resolver:  resolver,
		creds:     creds,
		pipeline:  pipeline,
		offsets:   offsets,
		interval:  cfg.PollInterval,
		batchSize: cfg.BatchSize,
		clock:     clock,
		logger:    logger,
		pollers:   make(map[string]*BranchPoller),
	}
}

// StartBranch starts polling a branch with an active credential. Starting a
// branch that is already polling does nothing.
func (s *PollSupervisor) StartBranch(ctx context.Context, branchID string) error {
	if _, err := s.resolver.Credential(ctx, branchID); err != nil {
		return err
	}

	s.mu.Lock()
	poller, ok := s.pollers[branchID]
	if !ok {
		poller = NewBranchPoller(branchID, s.resolver, s.pipeline, s.offsets, s.interval, s.batchSize, s.clock, s.logger)
		s.pollers[branchID] = poller
	}
	s.mu.Unlock()

	return poller.Start(ctx)
}

// StopBranch stops a branch poller and waits for its current cycle.
func (s *PollSupervisor) StopBranch(branchID string) {
	s.mu.Lock()
	poller, ok := s.pollers[branchID]
	s.mu.Unlock()
	if ok {
		poller.Stop()
	}
}

// StartAll starts every branch with an active credential.
func (s *PollSupervisor) StartAll(ctx context.Context) error {
	creds, err := s.creds.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active credentials: %w", err)
	}

	var errs []error
	for _, cred := range creds {
		if err := s.StartBranch(ctx, cred.BranchID()); err != nil {
			errs = append(errs, fmt.Errorf("branch %s: %w", cred.BranchID(), err))
		}
	}
	s.logger.Infow("branch pollers started", "branches", len(creds), "failed", len(errs))
	return errors.Join(errs...)
}

func (s *PollSupervisor) StopAll() {
	s.mu.Lock()
	pollers := make([]*BranchPoller, 0, len(s.pollers))
	for _, p := range s.pollers {
		pollers = append(pollers, p)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range pollers {
		wg.Add(1)
		go func(p *BranchPoller) {
			defer wg.Done()
			p.Stop()
		}(p)
	}
	wg.Wait()
}

// Status reports the poller of a branch; ok is false if it was never started.
func (s *PollSupervisor) Status(branchID string) (PollerStatus, bool) {
	s.mu.Lock()
	poller, ok := s.pollers[branchID]
	s.mu.Unlock()
	if !ok {
		return PollerStatus{BranchID: branchID, State: PollerStopped}, false
	}
	return poller.Status(), true
}
