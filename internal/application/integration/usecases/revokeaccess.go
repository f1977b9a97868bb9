package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
	"github.com/fitdesk/accessgate/internal/shared/utils"
)

// RevokeAccessUseCase removes door privileges of a member at the provider and locally.
type RevokeAccessUseCase struct {
	router        ProviderRouter
	personRepo    accesscontrol.PersonRepository
	privilegeRepo accesscontrol.PrivilegeRepository
	logger        logger.Interface
}

func NewRevokeAccessUseCase(
	router ProviderRouter,
	personRepo accesscontrol.PersonRepository,
	privilegeRepo accesscontrol.PrivilegeRepository,
	logger logger.Interface,
) *RevokeAccessUseCase {
	return &RevokeAccessUseCase{
		router:        router,
		personRepo:    personRepo,
		privilegeRepo: privilegeRepo,
		logger:        logger,
	}
}

// Execute revokes the requested doors, or every privilege of the member when
// none are given. A member without a person record has nothing to revoke.
func (uc *RevokeAccessUseCase) Execute(ctx context.Context, req dto.RevokeAccessRequest) (*dto.RevokeAccessResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	result := &dto.RevokeAccessResult{MemberID: req.MemberID, Revoked: []string{}}

	person, err := uc.personRepo.GetByMemberID(ctx, req.BranchID, req.MemberID)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrPersonNotFound) {
			return result, nil
		}
		uc.logger.Errorw("failed to load person", "branch_id", req.BranchID, "member_id", req.MemberID, "error", err)
		return nil, apperrors.NewInternalError("Failed to load person")
	}

	privileges, err := uc.privilegeRepo.ListByPerson(ctx, req.BranchID, person.PersonID())
	if err != nil {
		uc.logger.Errorw("failed to list privileges", "branch_id", req.BranchID, "person_id", person.PersonID(), "error", err)
		return nil, apperrors.NewInternalError("Failed to list privileges")
	}

	targets := matchPrivileges(privileges, req.DoorIDs)
	if len(targets) == 0 {
		return result, nil
	}

	client, err := uc.router.Resolve(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	for _, doorID := range targets {
		if err := uc.revokeDoor(ctx, client, req.BranchID, person.PersonID(), doorID); err != nil {
			result.Failures = append(result.Failures, accesscontrol.DoorFailure{DoorID: doorID, Reason: err.Error()})
			continue
		}
		result.Revoked = append(result.Revoked, doorID)
	}

	uc.logger.Infow("access revoked",
		"branch_id", req.BranchID,
		"member_id", req.MemberID,
		"revoked", len(result.Revoked),
		"failed", len(result.Failures),
	)

	if len(result.Failures) > 0 {
		return result, &accesscontrol.MappingError{
			Kind:     accesscontrol.MappingPrivilegeRevokeFailed,
			MemberID: req.MemberID,
			Failures: result.Failures,
		}
	}
	return result, nil
}

func (uc *RevokeAccessUseCase) revokeDoor(ctx context.Context, client *hikvision.Client, branchID, personID, doorID string) error {
	serial, doorNo, err := accesscontrol.ParseDoorID(doorID)
	if err != nil {
		return err
	}
	if err := client.DeletePrivilege(ctx, hikvision.NewPrivilege(personID, serial, doorNo, time.Time{}, time.Time{}, "")); err != nil {
		return fmt.Errorf("provider rejected revoke: %w", err)
	}
	if err := uc.privilegeRepo.Delete(ctx, branchID, personID, doorID); err != nil {
		return fmt.Errorf("failed to delete privilege: %w", err)
	}
	return nil
}

// matchPrivileges returns the door ids to revoke; an empty filter selects all.
func matchPrivileges(privileges []*accesscontrol.AccessPrivilege, doorIDs []string) []string {
	held := make(map[string]bool, len(privileges))
	all := make([]string, 0, len(privileges))
	for _, p := range privileges {
		held[p.DoorID()] = true
		all = append(all, p.DoorID())
	}
	if len(doorIDs) == 0 {
		return all
	}

	out := make([]string, 0, len(doorIDs))
	for _, id := range uniqueStrings(doorIDs) {
		if held[id] {
			out = append(out, id)
		}
	}
	return out
}
