package usecases

import (
	"context"
	"errors"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
	"github.com/fitdesk/accessgate/internal/shared/utils"
)

// SaveCredentialUseCase creates or replaces the provider credential of a branch.
type SaveCredentialUseCase struct {
	credentialRepo accesscontrol.CredentialRepository
	router         ProviderRouter
	stopper        BranchStopper
	logger         logger.Interface
}

func NewSaveCredentialUseCase(
	credentialRepo accesscontrol.CredentialRepository,
	router ProviderRouter,
	stopper BranchStopper,
	logger logger.Interface,
) *SaveCredentialUseCase {
	return &SaveCredentialUseCase{
		credentialRepo: credentialRepo,
		router:         router,
		stopper:        stopper,
		logger:         logger,
	}
}

func (uc *SaveCredentialUseCase) Execute(ctx context.Context, branchID string, req dto.SaveCredentialRequest) (*dto.CredentialResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	cred, err := uc.credentialRepo.GetByBranchID(ctx, branchID)
	switch {
	case errors.Is(err, accesscontrol.ErrCredentialNotFound):
		cred, err = accesscontrol.NewCredential(branchID, req.APIBaseURL, req.AppKey, req.AppSecret, req.WebhookSecret)
		if err != nil {
			return nil, apperrors.NewValidationError("Invalid credential", err.Error())
		}
	case err != nil:
		uc.logger.Errorw("failed to load credential", "branch_id", branchID, "error", err)
		return nil, apperrors.NewInternalError("Failed to load credential")
	default:
		if err := cred.Update(req.APIBaseURL, req.AppKey, req.AppSecret, req.WebhookSecret); err != nil {
			return nil, apperrors.NewValidationError("Invalid credential", err.Error())
		}
	}

	if req.IsActive != nil {
		if *req.IsActive {
			cred.Activate()
		} else {
			cred.Deactivate()
		}
	}

	if err := uc.credentialRepo.Save(ctx, cred); err != nil {
		uc.logger.Errorw("failed to save credential", "branch_id", branchID, "error", err)
		return nil, apperrors.NewInternalError("Failed to save credential")
	}

	// the old token may belong to a different app key
	uc.router.Invalidate(branchID)
	if !cred.IsActive() && uc.stopper != nil {
		uc.stopper.StopBranch(branchID)
	}

	uc.logger.Infow("credential saved",
		"branch_id", branchID,
		"app_key", cred.AppKey(),
		"is_active", cred.IsActive(),
	)
	return dto.ToCredentialResponse(cred), nil
}
