package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/infrastructure/token"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// BranchRouter maps a branch to a provider client bound to that branch's credential and token.
type BranchRouter struct {
	credentials accesscontrol.CredentialRepository
	tokens      *token.Manager
	httpClient  *http.Client
	logger      logger.Interface
}

func NewBranchRouter(
	credentials accesscontrol.CredentialRepository,
	tokens *token.Manager,
	httpClient *http.Client,
	logger logger.Interface,
) *BranchRouter {
	return &BranchRouter{
		credentials: credentials,
		tokens:      tokens,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Credential returns the active credential of a branch.
func (r *BranchRouter) Credential(ctx context.Context, branchID string) (*accesscontrol.Credential, error) {
	cred, err := r.credentials.GetByBranchID(ctx, branchID)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrCredentialNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if !cred.IsActive() {
		return nil, accesscontrol.ErrCredentialInactive
	}
	return cred, nil
}

// ClientFor returns a client for an already loaded credential.
func (r *BranchRouter) ClientFor(cred *accesscontrol.Credential) *hikvision.Client {
	return hikvision.NewClient(cred.APIBaseURL(), r.httpClient, r.tokens.TokenSource(cred))
}

// Resolve returns the client of an active branch.
func (r *BranchRouter) Resolve(ctx context.Context, branchID string) (*hikvision.Client, error) {
	cred, err := r.Credential(ctx, branchID)
	if err != nil {
		r.logger.Debugw("branch not routable", "branch_id", branchID, "error", err)
		return nil, err
	}
	return r.ClientFor(cred), nil
}

// Invalidate drops the cached token of a branch after its credential changed.
func (r *BranchRouter) Invalidate(branchID string) {
	r.tokens.Invalidate(branchID)
}
