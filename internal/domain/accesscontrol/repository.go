package accesscontrol

import (
	"context"
	"time"
)

// CredentialRepository persists one credential per branch.
type CredentialRepository interface {
	GetByBranchID(ctx context.Context, branchID string) (*Credential, error)
	ListActive(ctx context.Context) ([]*Credential, error)
	// Save inserts or updates by branch ID.
	Save(ctx context.Context, credential *Credential) error
}

// DeviceRepository is the per-branch device cache.
type DeviceRepository interface {
	ListByBranch(ctx context.Context, branchID string) ([]*Device, error)
	GetBySerial(ctx context.Context, branchID, serialNumber string) (*Device, error)
	// ReplaceBranch atomically upserts devices and marks every other device of the
	// branch stale and offline. Readers see either the old or the new set.
	ReplaceBranch(ctx context.Context, branchID string, devices []*Device, syncedAt time.Time) error
}

type PersonRepository interface {
	GetByMemberID(ctx context.Context, branchID, memberID string) (*Person, error)
	// Create returns the stored person; if one already exists for (branch, member) it is returned instead.
	Create(ctx context.Context, person *Person) (*Person, error)
}

type PrivilegeRepository interface {
	// Upsert inserts or updates a privilege keyed by (branch, person, door).
	Upsert(ctx context.Context, privilege *AccessPrivilege) error
	ListByPerson(ctx context.Context, branchID, personID string) ([]*AccessPrivilege, error)
	Delete(ctx context.Context, branchID, personID, doorID string) error
}

type EventRepository interface {
	// SaveIfAbsent stores the event unless its event ID is already stored and
	// returns the stored copy in either case.
	SaveIfAbsent(ctx context.Context, event *Event) (*Event, error)
	// MarkProcessed flips processed to true; it reports false if the event was already processed.
	MarkProcessed(ctx context.Context, eventID string, at time.Time) (bool, error)
	GetByEventID(ctx context.Context, eventID string) (*Event, error)
	ListByBranch(ctx context.Context, branchID string, since time.Time, limit int) ([]*Event, error)
}
