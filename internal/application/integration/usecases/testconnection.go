package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const (
	MessageMissingCredentials = "missing credentials"
	MessageIntegrationOff     = "integration disabled"
	MessageAuthRejected       = "auth rejected"
	MessageNetworkUnreachable = "network unreachable"
	MessageConnectionOK       = "connection ok"
)

// TestConnectionUseCase probes the provider with the stored credential of a branch.
type TestConnectionUseCase struct {
	credentialRepo accesscontrol.CredentialRepository
	router         ProviderRouter
	logger         logger.Interface
}

func NewTestConnectionUseCase(
	credentialRepo accesscontrol.CredentialRepository,
	router ProviderRouter,
	logger logger.Interface,
) *TestConnectionUseCase {
	return &TestConnectionUseCase{
		credentialRepo: credentialRepo,
		router:         router,
		logger:         logger,
	}
}

// Execute never fails; every outcome is described by the result.
func (uc *TestConnectionUseCase) Execute(ctx context.Context, branchID string) *dto.ConnectionResult {
	cred, err := uc.credentialRepo.GetByBranchID(ctx, branchID)
	if err != nil {
		if !errors.Is(err, accesscontrol.ErrCredentialNotFound) {
			uc.logger.Errorw("failed to load credential for connection test", "branch_id", branchID, "error", err)
		}
		return &dto.ConnectionResult{Message: MessageMissingCredentials}
	}
	if !cred.IsActive() {
		return &dto.ConnectionResult{Message: MessageIntegrationOff}
	}

	count, err := uc.router.ClientFor(cred).CountDevices(ctx)
	if err != nil {
		msg := connectionFailureMessage(err)
		uc.logger.Warnw("connection test failed", "branch_id", branchID, "result", msg, "error", err)
		return &dto.ConnectionResult{Message: msg}
	}

	uc.logger.Infow("connection test succeeded", "branch_id", branchID, "device_count", count)
	return &dto.ConnectionResult{Success: true, Message: MessageConnectionOK, DeviceCount: &count}
}

func connectionFailureMessage(err error) string {
	var authErr *accesscontrol.AuthError
	if errors.As(err, &authErr) {
		if authErr.Kind == accesscontrol.AuthInvalidCredentials {
			return MessageAuthRejected
		}
		return MessageNetworkUnreachable
	}
	if apiErr, ok := hikvision.AsAPIError(err); ok {
		if apiErr.IsAuth() || apiErr.IsInvalidCredentials() {
			return MessageAuthRejected
		}
		return fmt.Sprintf("provider error (HTTP %d)", apiErr.StatusCode)
	}
	return MessageNetworkUnreachable
}
