package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
)

// DeviceMapper converts between device entities and models
type DeviceMapper interface {
	ToDomain(model *models.DeviceModel) (*accesscontrol.Device, error)
	ToModel(entity *accesscontrol.Device) (*models.DeviceModel, error)
	ToDomainList(modelList []*models.DeviceModel) ([]*accesscontrol.Device, error)
}

type DeviceMapperImpl struct{}

func NewDeviceMapper() DeviceMapper {
	return &DeviceMapperImpl{}
}

func (m *DeviceMapperImpl) ToDomain(model *models.DeviceModel) (*accesscontrol.Device, error) {
	if model == nil {
		return nil, nil
	}

	var stored []models.DoorJSON
	if len(model.Doors) > 0 {
		if err := json.Unmarshal(model.Doors, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode doors of device %s: %w", model.SerialNumber, err)
		}
	}
	doors := make([]accesscontrol.Door, 0, len(stored))
	for _, d := range stored {
		doors = append(doors, accesscontrol.Door{DoorNo: d.DoorNo, DoorName: d.DoorName, DoorStatus: d.DoorStatus})
	}

	return accesscontrol.ReconstructDevice(
		model.ID,
		model.BranchID,
		model.SerialNumber,
		model.Name,
		model.DeviceType,
		model.IsOnline,
		model.IsCloudManaged,
		model.IsStale,
		doors,
		model.LastSyncedAt,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

func (m *DeviceMapperImpl) ToModel(entity *accesscontrol.Device) (*models.DeviceModel, error) {
	if entity == nil {
		return nil, nil
	}

	doors := entity.Doors()
	stored := make([]models.DoorJSON, 0, len(doors))
	for _, d := range doors {
		stored = append(stored, models.DoorJSON{DoorNo: d.DoorNo, DoorName: d.DoorName, DoorStatus: d.DoorStatus})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode doors of device %s: %w", entity.SerialNumber(), err)
	}

	return &models.DeviceModel{
		ID:             entity.ID(),
		BranchID:       entity.BranchID(),
		SerialNumber:   entity.SerialNumber(),
		Name:           entity.Name(),
		DeviceType:     entity.DeviceType(),
		IsOnline:       entity.IsOnline(),
		IsCloudManaged: entity.IsCloudManaged(),
		IsStale:        entity.IsStale(),
		Doors:          datatypes.JSON(raw),
		LastSyncedAt:   entity.LastSyncedAt(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}, nil
}

func (m *DeviceMapperImpl) ToDomainList(modelList []*models.DeviceModel) ([]*accesscontrol.Device, error) {
	devices := make([]*accesscontrol.Device, 0, len(modelList))
	for _, model := range modelList {
		d, err := m.ToDomain(model)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}
