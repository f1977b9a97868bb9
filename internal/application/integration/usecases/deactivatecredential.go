package usecases

import (
	"context"
	"errors"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// DeactivateCredentialUseCase disables the integration of a branch. The
// credential is kept so it can be re-enabled without re-entering secrets.
type DeactivateCredentialUseCase struct {
	credentialRepo accesscontrol.CredentialRepository
	router         ProviderRouter
	stopper        BranchStopper
	logger         logger.Interface
}

func NewDeactivateCredentialUseCase(
	credentialRepo accesscontrol.CredentialRepository,
	router ProviderRouter,
	stopper BranchStopper,
	logger logger.Interface,
) *DeactivateCredentialUseCase {
	return &DeactivateCredentialUseCase{
		credentialRepo: credentialRepo,
		router:         router,
		stopper:        stopper,
		logger:         logger,
	}
}

func (uc *DeactivateCredentialUseCase) Execute(ctx context.Context, branchID string) error {
	cred, err := uc.credentialRepo.GetByBranchID(ctx, branchID)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrCredentialNotFound) {
			return err
		}
		uc.logger.Errorw("failed to load credential", "branch_id", branchID, "error", err)
		return apperrors.NewInternalError("Failed to load credential")
	}

	if uc.stopper != nil {
		uc.stopper.StopBranch(branchID)
	}
	if !cred.IsActive() {
		return nil
	}

	cred.Deactivate()
	if err := uc.credentialRepo.Save(ctx, cred); err != nil {
		uc.logger.Errorw("failed to deactivate credential", "branch_id", branchID, "error", err)
		return apperrors.NewInternalError("Failed to deactivate credential")
	}
	uc.router.Invalidate(branchID)

	uc.logger.Infow("credential deactivated", "branch_id", branchID)
	return nil
}
