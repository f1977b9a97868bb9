package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/mappers"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
	sharedErrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// PersonRepository implements accesscontrol.PersonRepository and accesscontrol.PrivilegeRepository
type PersonRepository struct {
	db     *gorm.DB
	logger logger.Interface
	mapper mappers.PersonMapper
}

func NewPersonRepository(db *gorm.DB, logger logger.Interface) *PersonRepository {
	return &PersonRepository{
		db:     db,
		logger: logger,
		mapper: mappers.NewPersonMapper(),
	}
}

func (r *PersonRepository) GetByMemberID(ctx context.Context, branchID, memberID string) (*accesscontrol.Person, error) {
	var model models.PersonModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND member_id = ?", branchID, memberID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accesscontrol.ErrPersonNotFound
		}
		r.logger.Errorw("failed to get person", "branch_id", branchID, "member_id", memberID, "error", err)
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *PersonRepository) Create(ctx context.Context, person *accesscontrol.Person) (*accesscontrol.Person, error) {
	model := r.mapper.ToModel(person)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if sharedErrors.IsDuplicateError(err) {
			// a concurrent grant created the mapping first
			return r.GetByMemberID(ctx, person.BranchID(), person.MemberID())
		}
		r.logger.Errorw("failed to create person", "branch_id", person.BranchID(), "member_id", person.MemberID(), "error", err)
		return nil, fmt.Errorf("failed to create person: %w", err)
	}
	person.SetID(model.ID)
	return person, nil
}

func (r *PersonRepository) Upsert(ctx context.Context, privilege *accesscontrol.AccessPrivilege) error {
	model := r.mapper.PrivilegeToModel(privilege)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "branch_id"}, {Name: "person_id"}, {Name: "door_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"valid_from", "valid_until", "access_level", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert privilege",
			"branch_id", privilege.BranchID(),
			"person_id", privilege.PersonID(),
			"door_id", privilege.DoorID(),
			"error", err,
		)
		return fmt.Errorf("failed to upsert privilege: %w", err)
	}
	return nil
}

func (r *PersonRepository) ListByPerson(ctx context.Context, branchID, personID string) ([]*accesscontrol.AccessPrivilege, error) {
	var modelList []*models.PrivilegeModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND person_id = ?", branchID, personID).
		Order("door_id ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list privileges: %w", err)
	}
	privileges := make([]*accesscontrol.AccessPrivilege, 0, len(modelList))
	for _, m := range modelList {
		privileges = append(privileges, r.mapper.PrivilegeToDomain(m))
	}
	return privileges, nil
}

func (r *PersonRepository) Delete(ctx context.Context, branchID, personID, doorID string) error {
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND person_id = ? AND door_id = ?", branchID, personID, doorID).
		Delete(&models.PrivilegeModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete privilege: %w", err)
	}
	return nil
}
