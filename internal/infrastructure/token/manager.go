// Package token caches provider access tokens per branch.
package token

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/config"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const (
	defaultSkew          = 60 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBase     = 500 * time.Millisecond
	retryMultiplier      = 2
	retryMaxInterval     = 10 * time.Second
)

// Exchanger trades branch credentials for a token.
type Exchanger interface {
	Exchange(ctx context.Context, baseURL, appKey, appSecret string) (*oauth2.Token, error)
}

type cacheEntry struct {
	token       *oauth2.Token
	fingerprint string
}

// Manager hands out valid tokens per branch. It holds tokens in memory only,
// refreshes them ahead of expiry and coalesces concurrent refreshes.
type Manager struct {
	exchanger Exchanger
	clock     biztime.Clock
	logger    logger.Interface

	skew      time.Duration
	attempts  uint
	retryBase time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
	group singleflight.Group
}

type Option func(*Manager)

// WithClock replaces the wall clock used for expiry checks.
func WithClock(clock biztime.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

func NewManager(exchanger Exchanger, cfg config.ProviderConfig, log logger.Interface, opts ...Option) *Manager {
	m := &Manager{
		exchanger: exchanger,
		clock:     biztime.SystemClock(),
		logger:    log,
		skew:      cfg.TokenSkew,
		attempts:  cfg.TokenRetryAttempts,
		retryBase: cfg.TokenRetryBase,
		cache:     make(map[string]cacheEntry),
	}
	if m.skew <= 0 {
		m.skew = defaultSkew
	}
	if m.attempts == 0 {
		m.attempts = defaultRetryAttempts
	}
	if m.retryBase <= 0 {
		m.retryBase = defaultRetryBase
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns a token for the credential's branch that stays valid for at least the skew.
func (m *Manager) Token(ctx context.Context, cred *accesscontrol.Credential) (*oauth2.Token, error) {
	branchID := cred.BranchID()
	fp := cred.Fingerprint()

	if tok := m.cached(branchID, fp); tok != nil {
		return tok, nil
	}

	// One caller's cancellation must not fail the exchange shared with the others.
	exchangeCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(branchID+"|"+fp, func() (interface{}, error) {
		if tok := m.cached(branchID, fp); tok != nil {
			return tok, nil
		}
		tok, err := m.exchange(exchangeCtx, cred)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[branchID] = cacheEntry{token: tok, fingerprint: fp}
		m.mu.Unlock()

		m.logger.Infow("provider token refreshed",
			"branch_id", branchID,
			"expires_at", tok.Expiry,
			"area_domain", hikvision.AreaDomain(tok),
		)
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Invalidate drops the cached token of a branch; the next Token call exchanges again.
func (m *Manager) Invalidate(branchID string) {
	m.mu.Lock()
	delete(m.cache, branchID)
	m.mu.Unlock()
	m.logger.Debugw("provider token invalidated", "branch_id", branchID)
}

// TokenSource binds the manager to one credential for use by the provider client.
func (m *Manager) TokenSource(cred *accesscontrol.Credential) *BranchTokenSource {
	return &BranchTokenSource{manager: m, cred: cred}
}

func (m *Manager) cached(branchID, fingerprint string) *oauth2.Token {
	m.mu.RLock()
	entry, ok := m.cache[branchID]
	m.mu.RUnlock()
	if !ok || entry.fingerprint != fingerprint {
		return nil
	}
	if !m.clock.Now().Add(m.skew).Before(entry.token.Expiry) {
		return nil
	}
	return entry.token
}

func (m *Manager) exchange(ctx context.Context, cred *accesscontrol.Credential) (*oauth2.Token, error) {
	branchID := cred.BranchID()

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = m.retryBase
	expBackoff.Multiplier = retryMultiplier
	expBackoff.MaxInterval = retryMaxInterval

	attempt := 0
	operation := func() (*oauth2.Token, error) {
		attempt++
		tok, err := m.exchanger.Exchange(ctx, cred.APIBaseURL(), cred.AppKey(), cred.AppSecret())
		if err == nil {
			return tok, nil
		}
		if apiErr, ok := hikvision.AsAPIError(err); ok && apiErr.IsExchangeRefusal() {
			return nil, backoff.Permanent(&accesscontrol.AuthError{
				Kind:     accesscontrol.AuthInvalidCredentials,
				BranchID: branchID,
				Err:      err,
			})
		}
		m.logger.Warnw("provider token exchange failed",
			"branch_id", branchID,
			"attempt", attempt,
			"error", err,
		)
		return nil, err
	}

	tok, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(m.attempts),
	)
	if err == nil {
		return tok, nil
	}
	if accesscontrol.IsInvalidCredentials(err) {
		m.logger.Warnw("provider rejected branch credentials", "branch_id", branchID)
		return nil, err
	}
	m.logger.Errorw("provider token unavailable",
		"branch_id", branchID,
		"attempts", attempt,
		"error", err,
	)
	return nil, &accesscontrol.AuthError{Kind: accesscontrol.AuthUnavailable, BranchID: branchID, Err: err}
}

// BranchTokenSource implements hikvision.TokenSource for a single branch.
type BranchTokenSource struct {
	manager *Manager
	cred    *accesscontrol.Credential
}

func (s *BranchTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	return s.manager.Token(ctx, s.cred)
}

func (s *BranchTokenSource) Invalidate() {
	s.manager.Invalidate(s.cred.BranchID())
}

var _ hikvision.TokenSource = (*BranchTokenSource)(nil)
