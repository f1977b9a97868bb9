package models

import "time"

// CredentialModel is the GORM model for branch_credentials table
type CredentialModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	SID           string    `gorm:"column:sid;type:varchar(50);not null;uniqueIndex"`
	BranchID      string    `gorm:"column:branch_id;type:varchar(64);not null;uniqueIndex"`
	APIBaseURL    string    `gorm:"column:api_base_url;type:varchar(255);not null"`
	AppKey        string    `gorm:"column:app_key;type:varchar(128);not null"`
	AppSecret     string    `gorm:"column:app_secret;type:varchar(255);not null"`
	WebhookSecret string    `gorm:"column:webhook_secret;type:varchar(255)"`
	IsActive      bool      `gorm:"column:is_active;not null;index"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CredentialModel) TableName() string {
	return "branch_credentials"
}
