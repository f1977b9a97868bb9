package usecases

import (
	"context"
	"errors"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// ListPrivilegesUseCase returns the stored door privileges of a member.
type ListPrivilegesUseCase struct {
	personRepo    accesscontrol.PersonRepository
	privilegeRepo accesscontrol.PrivilegeRepository
	logger        logger.Interface
}

func NewListPrivilegesUseCase(
	personRepo accesscontrol.PersonRepository,
	privilegeRepo accesscontrol.PrivilegeRepository,
	logger logger.Interface,
) *ListPrivilegesUseCase {
	return &ListPrivilegesUseCase{personRepo: personRepo, privilegeRepo: privilegeRepo, logger: logger}
}

func (uc *ListPrivilegesUseCase) Execute(ctx context.Context, branchID, memberID string) (*dto.MemberAccessResponse, error) {
	person, err := uc.personRepo.GetByMemberID(ctx, branchID, memberID)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrPersonNotFound) {
			return nil, err
		}
		uc.logger.Errorw("failed to load person", "branch_id", branchID, "member_id", memberID, "error", err)
		return nil, apperrors.NewInternalError("Failed to load person")
	}

	privileges, err := uc.privilegeRepo.ListByPerson(ctx, branchID, person.PersonID())
	if err != nil {
		uc.logger.Errorw("failed to list privileges", "branch_id", branchID, "person_id", person.PersonID(), "error", err)
		return nil, apperrors.NewInternalError("Failed to list privileges")
	}

	return &dto.MemberAccessResponse{
		MemberID:   memberID,
		PersonID:   person.PersonID(),
		Privileges: dto.ToPrivilegeResponses(privileges),
	}, nil
}
