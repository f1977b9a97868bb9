package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/mappers"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// DeviceRepository implements accesscontrol.DeviceRepository
type DeviceRepository struct {
	db     *gorm.DB
	logger logger.Interface
	mapper mappers.DeviceMapper
}

func NewDeviceRepository(db *gorm.DB, logger logger.Interface) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
		mapper: mappers.NewDeviceMapper(),
	}
}

func (r *DeviceRepository) ListByBranch(ctx context.Context, branchID string) ([]*accesscontrol.Device, error) {
	var modelList []*models.DeviceModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("serial_number ASC").
		Find(&modelList).Error
	if err != nil {
		r.logger.Errorw("failed to list devices", "branch_id", branchID, "error", err)
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return r.mapper.ToDomainList(modelList)
}

func (r *DeviceRepository) GetBySerial(ctx context.Context, branchID, serialNumber string) (*accesscontrol.Device, error) {
	var model models.DeviceModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND serial_number = ?", branchID, serialNumber).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accesscontrol.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *DeviceRepository) ReplaceBranch(ctx context.Context, branchID string, devices []*accesscontrol.Device, syncedAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []*models.DeviceModel
		if err := tx.Where("branch_id = ?", branchID).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load devices: %w", err)
		}
		bySerial := make(map[string]*models.DeviceModel, len(existing))
		for _, m := range existing {
			bySerial[m.SerialNumber] = m
		}

		serials := make([]string, 0, len(devices))
		for _, d := range devices {
			model, err := r.mapper.ToModel(d)
			if err != nil {
				return err
			}
			model.IsStale = false
			model.LastSyncedAt = syncedAt
			if prev, ok := bySerial[model.SerialNumber]; ok {
				model.ID = prev.ID
				model.CreatedAt = prev.CreatedAt
				if err := tx.Save(model).Error; err != nil {
					return fmt.Errorf("failed to update device %s: %w", model.SerialNumber, err)
				}
			} else if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to create device %s: %w", model.SerialNumber, err)
			}
			serials = append(serials, model.SerialNumber)
		}

		// devices the provider no longer lists keep their door history
		stale := tx.Model(&models.DeviceModel{}).Where("branch_id = ?", branchID)
		if len(serials) > 0 {
			stale = stale.Where("serial_number NOT IN ?", serials)
		}
		return stale.Updates(map[string]interface{}{
			"is_stale":   true,
			"is_online":  false,
			"updated_at": syncedAt,
		}).Error
	})
	if err != nil {
		r.logger.Errorw("failed to replace branch devices", "branch_id", branchID, "error", err)
		return fmt.Errorf("failed to replace branch devices: %w", err)
	}
	return nil
}
