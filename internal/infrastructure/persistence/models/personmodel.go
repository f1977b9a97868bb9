package models

import "time"

// PersonModel is the GORM model for access_persons table
type PersonModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SID       string    `gorm:"column:sid;type:varchar(50);not null;uniqueIndex"`
	BranchID  string    `gorm:"column:branch_id;type:varchar(64);not null;uniqueIndex:idx_branch_member"`
	MemberID  string    `gorm:"column:member_id;type:varchar(64);not null;uniqueIndex:idx_branch_member"`
	PersonID  string    `gorm:"column:person_id;type:varchar(64);not null;index"`
	Name      string    `gorm:"column:name;type:varchar(255)"`
	Status    string    `gorm:"column:status;type:varchar(20);not null;default:'active'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PersonModel) TableName() string {
	return "access_persons"
}

// PrivilegeModel is the GORM model for access_privileges table
type PrivilegeModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	BranchID    string    `gorm:"column:branch_id;type:varchar(64);not null;uniqueIndex:idx_branch_person_door"`
	PersonID    string    `gorm:"column:person_id;type:varchar(64);not null;uniqueIndex:idx_branch_person_door"`
	DoorID      string    `gorm:"column:door_id;type:varchar(96);not null;uniqueIndex:idx_branch_person_door"`
	ValidFrom   time.Time `gorm:"column:valid_from;not null"`
	ValidUntil  time.Time `gorm:"column:valid_until;not null"`
	AccessLevel string    `gorm:"column:access_level;type:varchar(32);not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PrivilegeModel) TableName() string {
	return "access_privileges"
}
