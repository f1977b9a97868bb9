package usecases

import (
	"context"
	"errors"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

type GetCredentialUseCase struct {
	credentialRepo accesscontrol.CredentialRepository
	logger         logger.Interface
}

func NewGetCredentialUseCase(credentialRepo accesscontrol.CredentialRepository, logger logger.Interface) *GetCredentialUseCase {
	return &GetCredentialUseCase{credentialRepo: credentialRepo, logger: logger}
}

// Execute returns the credential of a branch with secrets masked. Inactive credentials are returned too.
func (uc *GetCredentialUseCase) Execute(ctx context.Context, branchID string) (*dto.CredentialResponse, error) {
	cred, err := uc.credentialRepo.GetByBranchID(ctx, branchID)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrCredentialNotFound) {
			return nil, err
		}
		uc.logger.Errorw("failed to load credential", "branch_id", branchID, "error", err)
		return nil, apperrors.NewInternalError("Failed to load credential")
	}
	return dto.ToCredentialResponse(cred), nil
}
