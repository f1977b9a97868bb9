package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/logger"
	"github.com/fitdesk/accessgate/internal/shared/utils"
)

// GrantAccessUseCase maps a member to a provider person and grants it door privileges.
// Doors are granted independently; a failing door does not undo the others.
type GrantAccessUseCase struct {
	router        ProviderRouter
	deviceRepo    accesscontrol.DeviceRepository
	personRepo    accesscontrol.PersonRepository
	privilegeRepo accesscontrol.PrivilegeRepository
	logger        logger.Interface
}

func NewGrantAccessUseCase(
	router ProviderRouter,
	deviceRepo accesscontrol.DeviceRepository,
	personRepo accesscontrol.PersonRepository,
	privilegeRepo accesscontrol.PrivilegeRepository,
	logger logger.Interface,
) *GrantAccessUseCase {
	return &GrantAccessUseCase{
		router:        router,
		deviceRepo:    deviceRepo,
		personRepo:    personRepo,
		privilegeRepo: privilegeRepo,
		logger:        logger,
	}
}

// Execute returns the granted privileges. When some doors failed the result is
// returned together with a MappingError listing them.
func (uc *GrantAccessUseCase) Execute(ctx context.Context, req dto.GrantAccessRequest) (*dto.GrantAccessResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	client, err := uc.router.Resolve(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	person, err := ensurePerson(ctx, client, uc.personRepo, req.BranchID, req.MemberID, req.MemberName)
	if err != nil {
		uc.logger.Errorw("failed to map member to provider person",
			"branch_id", req.BranchID,
			"member_id", req.MemberID,
			"error", err,
		)
		return nil, &accesscontrol.MappingError{
			Kind:     accesscontrol.MappingPersonCreateFailed,
			MemberID: req.MemberID,
			Err:      err,
		}
	}

	result := &dto.GrantAccessResult{
		MemberID: req.MemberID,
		PersonID: person.PersonID(),
		Granted:  []dto.PrivilegeResponse{},
	}

	for _, doorID := range uniqueStrings(req.DoorIDs) {
		privilege, err := uc.grantDoor(ctx, client, req, person.PersonID(), doorID)
		if err != nil {
			result.Failures = append(result.Failures, accesscontrol.DoorFailure{DoorID: doorID, Reason: err.Error()})
			continue
		}
		result.Granted = append(result.Granted, dto.ToPrivilegeResponses([]*accesscontrol.AccessPrivilege{privilege})...)
	}

	uc.logger.Infow("access granted",
		"branch_id", req.BranchID,
		"member_id", req.MemberID,
		"person_id", person.PersonID(),
		"granted", len(result.Granted),
		"failed", len(result.Failures),
	)

	if len(result.Failures) > 0 {
		return result, &accesscontrol.MappingError{
			Kind:     accesscontrol.MappingPrivilegeAssignFailed,
			MemberID: req.MemberID,
			Failures: result.Failures,
		}
	}
	return result, nil
}

func (uc *GrantAccessUseCase) grantDoor(
	ctx context.Context,
	client *hikvision.Client,
	req dto.GrantAccessRequest,
	personID, doorID string,
) (*accesscontrol.AccessPrivilege, error) {
	door, err := resolveDoor(ctx, uc.deviceRepo, req.BranchID, doorID)
	if err != nil {
		return nil, err
	}

	privilege, err := accesscontrol.NewAccessPrivilege(req.BranchID, personID, doorID, req.ValidFrom, req.ValidUntil, req.AccessLevel)
	if err != nil {
		return nil, err
	}

	remote := hikvision.NewPrivilege(personID, door.serialNo, door.doorNo, req.ValidFrom, req.ValidUntil, req.AccessLevel)
	if err := client.AddPrivilege(ctx, remote); err != nil {
		return nil, fmt.Errorf("provider rejected privilege: %w", err)
	}

	if err := uc.privilegeRepo.Upsert(ctx, privilege); err != nil {
		uc.logger.Errorw("privilege granted at provider but not stored",
			"branch_id", req.BranchID,
			"person_id", personID,
			"door_id", doorID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to store privilege: %w", err)
	}
	return privilege, nil
}

// ensurePerson returns the person of a member, adopting an existing provider
// record before creating one. Repeated calls for a member yield the same person.
func ensurePerson(
	ctx context.Context,
	client *hikvision.Client,
	persons accesscontrol.PersonRepository,
	branchID, memberID, name string,
) (*accesscontrol.Person, error) {
	person, err := persons.GetByMemberID(ctx, branchID, memberID)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, accesscontrol.ErrPersonNotFound) {
		return nil, fmt.Errorf("failed to load person: %w", err)
	}

	if name == "" {
		name = memberID
	}

	info, err := client.FindPersonByEmployeeNo(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("provider person lookup: %w", err)
	}
	if info == nil {
		info, err = client.AddPerson(ctx, memberID, name)
		if err != nil {
			return nil, fmt.Errorf("provider person create: %w", err)
		}
	} else if info.PersonName != "" {
		name = info.PersonName
	}

	person, err = accesscontrol.NewPerson(branchID, memberID, info.PersonID, name)
	if err != nil {
		return nil, err
	}
	return persons.Create(ctx, person)
}
