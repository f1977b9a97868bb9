package integration

import (
	"context"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/application/integration/services"
)

type SaveCredentialExecutor interface {
	Execute(ctx context.Context, branchID string, req dto.SaveCredentialRequest) (*dto.CredentialResponse, error)
}

type GetCredentialExecutor interface {
	Execute(ctx context.Context, branchID string) (*dto.CredentialResponse, error)
}

type DeactivateCredentialExecutor interface {
	Execute(ctx context.Context, branchID string) error
}

type TestConnectionExecutor interface {
	Execute(ctx context.Context, branchID string) *dto.ConnectionResult
}

// DeviceListExecutor serves both the cached read and the provider sync.
type DeviceListExecutor interface {
	Execute(ctx context.Context, branchID string) ([]dto.DeviceResponse, error)
}

type OpenDoorExecutor interface {
	Execute(ctx context.Context, branchID, doorID string) error
}

type GrantAccessExecutor interface {
	Execute(ctx context.Context, req dto.GrantAccessRequest) (*dto.GrantAccessResult, error)
}

type RevokeAccessExecutor interface {
	Execute(ctx context.Context, req dto.RevokeAccessRequest) (*dto.RevokeAccessResult, error)
}

type ListPrivilegesExecutor interface {
	Execute(ctx context.Context, branchID, memberID string) (*dto.MemberAccessResponse, error)
}

// PollController starts and stops the event poller of a branch.
type PollController interface {
	StartBranch(ctx context.Context, branchID string) error
	StopBranch(branchID string)
	Status(branchID string) (services.PollerStatus, bool)
}
