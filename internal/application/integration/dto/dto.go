package dto

import (
	"time"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/shared/utils"
)

// SaveCredentialRequest creates or replaces the provider credential of a branch.
// Blank secrets keep the stored ones on update.
type SaveCredentialRequest struct {
	APIBaseURL    string `json:"api_base_url" validate:"required,url"`
	AppKey        string `json:"app_key" validate:"required"`
	AppSecret     string `json:"app_secret"`
	WebhookSecret string `json:"webhook_secret"`
	IsActive      *bool  `json:"is_active"`
}

// CredentialResponse never carries secrets in plain text.
type CredentialResponse struct {
	SID               string    `json:"sid"`
	BranchID          string    `json:"branch_id"`
	APIBaseURL        string    `json:"api_base_url"`
	AppKey            string    `json:"app_key"`
	AppSecretMasked   string    `json:"app_secret_masked"`
	WebhookConfigured bool      `json:"webhook_configured"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func ToCredentialResponse(c *accesscontrol.Credential) *CredentialResponse {
	return &CredentialResponse{
		SID:               c.SID(),
		BranchID:          c.BranchID(),
		APIBaseURL:        c.APIBaseURL(),
		AppKey:            c.AppKey(),
		AppSecretMasked:   utils.MaskSecret(c.AppSecret()),
		WebhookConfigured: c.WebhookSecret() != "",
		IsActive:          c.IsActive(),
		CreatedAt:         c.CreatedAt(),
		UpdatedAt:         c.UpdatedAt(),
	}
}

// ConnectionResult is the outcome of a credential probe. Message is one of a fixed set.
type ConnectionResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	DeviceCount *int   `json:"device_count,omitempty"`
}

type DoorResponse struct {
	DoorID     string `json:"door_id"`
	DoorNo     int    `json:"door_no"`
	DoorName   string `json:"door_name"`
	DoorStatus string `json:"door_status,omitempty"`
}

type DeviceResponse struct {
	SerialNumber   string         `json:"serial_number"`
	Name           string         `json:"name"`
	DeviceType     string         `json:"device_type"`
	IsOnline       bool           `json:"is_online"`
	IsCloudManaged bool           `json:"is_cloud_managed"`
	IsStale        bool           `json:"is_stale"`
	LastSyncedAt   time.Time      `json:"last_synced_at"`
	Doors          []DoorResponse `json:"doors"`
}

func ToDeviceResponse(d *accesscontrol.Device) DeviceResponse {
	doors := d.Doors()
	resp := DeviceResponse{
		SerialNumber:   d.SerialNumber(),
		Name:           d.Name(),
		DeviceType:     d.DeviceType(),
		IsOnline:       d.IsOnline(),
		IsCloudManaged: d.IsCloudManaged(),
		IsStale:        d.IsStale(),
		LastSyncedAt:   d.LastSyncedAt(),
		Doors:          make([]DoorResponse, 0, len(doors)),
	}
	for _, door := range doors {
		resp.Doors = append(resp.Doors, DoorResponse{
			DoorID:     accesscontrol.DoorID(d.SerialNumber(), door.DoorNo),
			DoorNo:     door.DoorNo,
			DoorName:   door.DoorName,
			DoorStatus: door.DoorStatus,
		})
	}
	return resp
}

func ToDeviceResponses(devices []*accesscontrol.Device) []DeviceResponse {
	out := make([]DeviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, ToDeviceResponse(d))
	}
	return out
}

// GrantAccessRequest grants a member access to doors for a validity window.
// BranchID comes from the route.
type GrantAccessRequest struct {
	BranchID    string    `json:"-"`
	MemberID    string    `json:"member_id" validate:"required,max=64"`
	MemberName  string    `json:"member_name" validate:"max=255"`
	DoorIDs     []string  `json:"door_ids" validate:"required,min=1,dive,required"`
	ValidFrom   time.Time `json:"valid_from" validate:"required"`
	ValidUntil  time.Time `json:"valid_until" validate:"required,gtfield=ValidFrom"`
	AccessLevel string    `json:"access_level" validate:"max=32"`
}

// RevokeAccessRequest removes privileges; empty DoorIDs means every door of the branch.
type RevokeAccessRequest struct {
	BranchID string   `json:"-"`
	MemberID string   `json:"member_id" validate:"required,max=64"`
	DoorIDs  []string `json:"door_ids" validate:"omitempty,dive,required"`
}

type PrivilegeResponse struct {
	DoorID      string    `json:"door_id"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidUntil  time.Time `json:"valid_until"`
	AccessLevel string    `json:"access_level"`
}

func ToPrivilegeResponses(privileges []*accesscontrol.AccessPrivilege) []PrivilegeResponse {
	out := make([]PrivilegeResponse, 0, len(privileges))
	for _, p := range privileges {
		out = append(out, PrivilegeResponse{
			DoorID:      p.DoorID(),
			ValidFrom:   p.ValidFrom(),
			ValidUntil:  p.ValidUntil(),
			AccessLevel: p.AccessLevel(),
		})
	}
	return out
}

type GrantAccessResult struct {
	MemberID string                      `json:"member_id"`
	PersonID string                      `json:"person_id"`
	Granted  []PrivilegeResponse         `json:"granted"`
	Failures []accesscontrol.DoorFailure `json:"failures,omitempty"`
}

type RevokeAccessResult struct {
	MemberID string                      `json:"member_id"`
	Revoked  []string                    `json:"revoked"`
	Failures []accesscontrol.DoorFailure `json:"failures,omitempty"`
}

type MemberAccessResponse struct {
	MemberID   string              `json:"member_id"`
	PersonID   string              `json:"person_id"`
	Privileges []PrivilegeResponse `json:"privileges"`
}

// PollerStatusResponse reports the polling loop of one branch.
type PollerStatusResponse struct {
	BranchID       string     `json:"branch_id"`
	Running        bool       `json:"running"`
	State          string     `json:"state"`
	LastOffset     int64      `json:"last_offset"`
	LastError      string     `json:"last_error,omitempty"`
	LastPollAt     *time.Time `json:"last_poll_at,omitempty"`
	EventsAccepted int64      `json:"events_accepted"`
}
