package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/mappers"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// CredentialRepository implements accesscontrol.CredentialRepository
type CredentialRepository struct {
	db     *gorm.DB
	logger logger.Interface
	mapper mappers.CredentialMapper
}

func NewCredentialRepository(db *gorm.DB, logger logger.Interface) *CredentialRepository {
	return &CredentialRepository{
		db:     db,
		logger: logger,
		mapper: mappers.NewCredentialMapper(),
	}
}

func (r *CredentialRepository) GetByBranchID(ctx context.Context, branchID string) (*accesscontrol.Credential, error) {
	var model models.CredentialModel
	err := r.db.WithContext(ctx).Where("branch_id = ?", branchID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accesscontrol.ErrCredentialNotFound
		}
		r.logger.Errorw("failed to get credential", "branch_id", branchID, "error", err)
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *CredentialRepository) ListActive(ctx context.Context) ([]*accesscontrol.Credential, error) {
	var modelList []*models.CredentialModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("branch_id ASC").Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to list active credentials", "error", err)
		return nil, fmt.Errorf("failed to list active credentials: %w", err)
	}
	creds := make([]*accesscontrol.Credential, 0, len(modelList))
	for _, m := range modelList {
		creds = append(creds, r.mapper.ToDomain(m))
	}
	return creds, nil
}

func (r *CredentialRepository) Save(ctx context.Context, credential *accesscontrol.Credential) error {
	model := r.mapper.ToModel(credential)

	var err error
	if model.ID == 0 {
		err = r.db.WithContext(ctx).Create(model).Error
	} else {
		err = r.db.WithContext(ctx).Save(model).Error
	}
	if err != nil {
		r.logger.Errorw("failed to save credential", "branch_id", credential.BranchID(), "error", err)
		return fmt.Errorf("failed to save credential: %w", err)
	}

	if credential.ID() == 0 {
		credential.SetID(model.ID)
	}
	return nil
}
