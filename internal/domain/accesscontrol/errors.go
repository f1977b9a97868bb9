package accesscontrol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialInactive = errors.New("integration disabled for branch")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDoorNotFound       = errors.New("door not found in branch")
	ErrPersonNotFound     = errors.New("person not found")
	ErrInvalidDoorID      = errors.New("invalid door id")
	ErrEventNotFound      = errors.New("event not found")
)

// AuthErrorKind distinguishes configuration problems from provider outages.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthUnavailable        AuthErrorKind = "unavailable"
)

// AuthError is returned by the token manager when no valid token can be produced.
type AuthError struct {
	Kind     AuthErrorKind
	BranchID string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s for branch %s: %v", e.Kind, e.BranchID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsInvalidCredentials reports whether err is an AuthError caused by rejected credentials.
func IsInvalidCredentials(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == AuthInvalidCredentials
}

type SyncErrorKind string

const (
	SyncProviderUnreachable SyncErrorKind = "provider_unreachable"
	SyncPartialData         SyncErrorKind = "partial_data"
)

// SyncError is returned by device sync; the device cache is unchanged when it occurs.
type SyncError struct {
	Kind     SyncErrorKind
	BranchID string
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("device sync %s for branch %s: %v", e.Kind, e.BranchID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

type MappingErrorKind string

const (
	MappingPersonCreateFailed    MappingErrorKind = "person_create_failed"
	MappingPrivilegeAssignFailed MappingErrorKind = "privilege_assign_failed"
	MappingPrivilegeRevokeFailed MappingErrorKind = "privilege_revoke_failed"
)

// DoorFailure describes one door that could not be granted or revoked.
type DoorFailure struct {
	DoorID string `json:"door_id"`
	Reason string `json:"reason"`
}

// MappingError reports person or privilege failures. For privilege kinds,
// Failures lists every door that failed; doors not listed succeeded.
type MappingError struct {
	Kind     MappingErrorKind
	MemberID string
	Failures []DoorFailure
	Err      error
}

func (e *MappingError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s for member %s: %v", e.Kind, e.MemberID, e.Err)
	}
	doors := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		doors = append(doors, f.DoorID+": "+f.Reason)
	}
	return fmt.Sprintf("%s for member %s: %s", e.Kind, e.MemberID, strings.Join(doors, "; "))
}

func (e *MappingError) Unwrap() error { return e.Err }

type IngestionErrorKind string

const (
	IngestionPollFailed    IngestionErrorKind = "poll_failed"
	IngestionAckFailed     IngestionErrorKind = "ack_failed"
	IngestionProcessFailed IngestionErrorKind = "process_failed"
)

// IngestionError is logged by the event pipeline and never stops the poll loop.
type IngestionError struct {
	Kind     IngestionErrorKind
	BranchID string
	Offset   int64
	EventID  string
	Err      error
}

func (e *IngestionError) Error() string {
	msg := fmt.Sprintf("ingestion %s for branch %s at offset %d", e.Kind, e.BranchID, e.Offset)
	if e.EventID != "" {
		msg += " (event " + e.EventID + ")"
	}
	return msg + ": " + fmt.Sprint(e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
