package models

import (
	"time"

	"gorm.io/datatypes"
)

// DeviceModel is the GORM model for access_devices table.
// Doors holds a JSON array of DoorJSON.
type DeviceModel struct {
	ID             uint           `gorm:"primaryKey;autoIncrement"`
	BranchID       string         `gorm:"column:branch_id;type:varchar(64);not null;uniqueIndex:idx_branch_serial"`
	SerialNumber   string         `gorm:"column:serial_number;type:varchar(64);not null;uniqueIndex:idx_branch_serial"`
	Name           string         `gorm:"column:name;type:varchar(255)"`
	DeviceType     string         `gorm:"column:device_type;type:varchar(64)"`
	IsOnline       bool           `gorm:"column:is_online;not null;default:false"`
	IsCloudManaged bool           `gorm:"column:is_cloud_managed;not null;default:false"`
	IsStale        bool           `gorm:"column:is_stale;not null;default:false"`
	Doors          datatypes.JSON `gorm:"column:doors"`
	LastSyncedAt   time.Time      `gorm:"column:last_synced_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// DoorJSON is the stored shape of one door inside DeviceModel.Doors
type DoorJSON struct {
	DoorNo     int    `json:"door_no"`
	DoorName   string `json:"door_name"`
	DoorStatus string `json:"door_status"`
}

func (DeviceModel) TableName() string {
	return "access_devices"
}
