package usecases

import (
	"context"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
)

// ProviderRouter resolves the provider client of a branch.
type ProviderRouter interface {
	Credential(ctx context.Context, branchID string) (*accesscontrol.Credential, error)
	ClientFor(cred *accesscontrol.Credential) *hikvision.Client
	Resolve(ctx context.Context, branchID string) (*hikvision.Client, error)
	Invalidate(branchID string)
}

// BranchStopper stops event polling of a branch.
type BranchStopper interface {
	StopBranch(branchID string)
}
