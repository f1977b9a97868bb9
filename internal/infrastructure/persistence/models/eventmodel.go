package models

import "time"

// EventModel is the GORM model for access_events table
type EventModel struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	EventID     string     `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex"`
	BranchID    string     `gorm:"column:branch_id;type:varchar(64);not null;index:idx_branch_time"`
	EventType   string     `gorm:"column:event_type;type:varchar(16);not null"`
	EventTime   time.Time  `gorm:"column:event_time;not null;index:idx_branch_time"`
	DeviceID    string     `gorm:"column:device_id;type:varchar(64)"`
	DoorID      string     `gorm:"column:door_id;type:varchar(96)"`
	PersonID    string     `gorm:"column:person_id;type:varchar(64)"`
	MemberID    string     `gorm:"column:member_id;type:varchar(64);index"`
	CardNo      string     `gorm:"column:card_no;type:varchar(64)"`
	PictureURL  string     `gorm:"column:picture_url;type:varchar(512)"`
	Offset      int64      `gorm:"column:provider_offset;not null"`
	Source      string     `gorm:"column:source;type:varchar(16);not null"`
	Processed   bool       `gorm:"column:processed;not null;default:false"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
	ReceivedAt  time.Time  `gorm:"column:received_at;not null"`
}

func (EventModel) TableName() string {
	return "access_events"
}

// All returns every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&CredentialModel{},
		&DeviceModel{},
		&PersonModel{},
		&PrivilegeModel{},
		&EventModel{},
	}
}
