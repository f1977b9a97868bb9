package mappers

import (
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
)

// PersonMapper converts persons and access privileges
type PersonMapper interface {
	ToDomain(model *models.PersonModel) *accesscontrol.Person
	ToModel(entity *accesscontrol.Person) *models.PersonModel
	PrivilegeToDomain(model *models.PrivilegeModel) *accesscontrol.AccessPrivilege
	PrivilegeToModel(entity *accesscontrol.AccessPrivilege) *models.PrivilegeModel
}

type PersonMapperImpl struct{}

func NewPersonMapper() PersonMapper {
	return &PersonMapperImpl{}
}

func (m *PersonMapperImpl) ToDomain(model *models.PersonModel) *accesscontrol.Person {
	if model == nil {
		return nil
	}
	return accesscontrol.ReconstructPerson(
		model.ID,
		model.SID,
		model.BranchID,
		model.MemberID,
		model.PersonID,
		model.Name,
		accesscontrol.PersonStatus(model.Status),
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *PersonMapperImpl) ToModel(entity *accesscontrol.Person) *models.PersonModel {
	if entity == nil {
		return nil
	}
	return &models.PersonModel{
		ID:        entity.ID(),
		SID:       entity.SID(),
		BranchID:  entity.BranchID(),
		MemberID:  entity.MemberID(),
		PersonID:  entity.PersonID(),
		Name:      entity.Name(),
		Status:    string(entity.Status()),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

func (m *PersonMapperImpl) PrivilegeToDomain(model *models.PrivilegeModel) *accesscontrol.AccessPrivilege {
	if model == nil {
		return nil
	}
	return accesscontrol.ReconstructAccessPrivilege(
		model.ID,
		model.BranchID,
		model.PersonID,
		model.DoorID,
		model.ValidFrom.UTC(),
		model.ValidUntil.UTC(),
		model.AccessLevel,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *PersonMapperImpl) PrivilegeToModel(entity *accesscontrol.AccessPrivilege) *models.PrivilegeModel {
	if entity == nil {
		return nil
	}
	return &models.PrivilegeModel{
		ID:          entity.ID(),
		BranchID:    entity.BranchID(),
		PersonID:    entity.PersonID(),
		DoorID:      entity.DoorID(),
		ValidFrom:   entity.ValidFrom(),
		ValidUntil:  entity.ValidUntil(),
		AccessLevel: entity.AccessLevel(),
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
}
