package accesscontrol

import (
	"errors"
	"strings"
	"time"

	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/id"
)

var (
	ErrMemberIDRequired       = errors.New("member id is required")
	ErrProviderPersonRequired = errors.New("provider person id is required")
	ErrInvalidValidityWindow  = errors.New("valid_from must be before valid_until")
)

type PersonStatus string

const (
	PersonStatusActive   PersonStatus = "active"
	PersonStatusDisabled PersonStatus = "disabled"
)

// Person maps a gym member to the provider's person record in one branch.
// The member ID doubles as the provider employee number, which makes creation idempotent.
type Person struct {
	id        uint
	sid       string
	branchID  string
	memberID  string
	personID  string
	name      string
	status    PersonStatus
	createdAt time.Time
	updatedAt time.Time
}

func NewPerson(branchID, memberID, personID, name string) (*Person, error) {
	if strings.TrimSpace(branchID) == "" {
		return nil, ErrBranchIDRequired
	}
	if strings.TrimSpace(memberID) == "" {
		return nil, ErrMemberIDRequired
	}
	if strings.TrimSpace(personID) == "" {
		return nil, ErrProviderPersonRequired
	}
	sid, err := id.New(id.PrefixPerson)
	if err != nil {
		return nil, err
	}
	now := biztime.NowUTC()
	return &Person{
		sid:       sid,
		branchID:  branchID,
		memberID:  memberID,
		personID:  personID,
		name:      name,
		status:    PersonStatusActive,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructPerson(id uint, sid, branchID, memberID, personID, name string, status PersonStatus, createdAt, updatedAt time.Time) *Person {
	return &Person{
		id:        id,
		sid:       sid,
		branchID:  branchID,
		memberID:  memberID,
		personID:  personID,
		name:      name,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p *Person) ID() uint             { return p.id }
func (p *Person) SID() string          { return p.sid }
func (p *Person) BranchID() string     { return p.branchID }
func (p *Person) MemberID() string     { return p.memberID }
func (p *Person) PersonID() string     { return p.personID }
func (p *Person) Name() string         { return p.name }
func (p *Person) Status() PersonStatus { return p.status }
func (p *Person) CreatedAt() time.Time { return p.createdAt }
func (p *Person) UpdatedAt() time.Time { return p.updatedAt }

// SetID sets the ID (only for persistence layer use)
func (p *Person) SetID(id uint) {
	p.id = id
}

// DefaultAccessLevel is used when a grant does not name one.
const DefaultAccessLevel = "normal"

// AccessPrivilege grants a person passage through one door for a time window.
// Unique per (branch, person, door).
type AccessPrivilege struct {
	id          uint
	branchID    string
	personID    string
	doorID      string
	validFrom   time.Time
	validUntil  time.Time
	accessLevel string
	createdAt   time.Time
	updatedAt   time.Time
}

func NewAccessPrivilege(branchID, personID, doorID string, validFrom, validUntil time.Time, accessLevel string) (*AccessPrivilege, error) {
	if strings.TrimSpace(personID) == "" {
		return nil, ErrProviderPersonRequired
	}
	if _, _, err := ParseDoorID(doorID); err != nil {
		return nil, err
	}
	if !validFrom.Before(validUntil) {
		return nil, ErrInvalidValidityWindow
	}
	if accessLevel == "" {
		accessLevel = DefaultAccessLevel
	}
	now := biztime.NowUTC()
	return &AccessPrivilege{
		branchID:    branchID,
		personID:    personID,
		doorID:      doorID,
		validFrom:   validFrom.UTC(),
		validUntil:  validUntil.UTC(),
		accessLevel: accessLevel,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func ReconstructAccessPrivilege(
	id uint,
	branchID, personID, doorID string,
	validFrom, validUntil time.Time,
	accessLevel string,
	createdAt, updatedAt time.Time,
) *AccessPrivilege {
	return &AccessPrivilege{
		id:          id,
		branchID:    branchID,
		personID:    personID,
		doorID:      doorID,
		validFrom:   validFrom,
		validUntil:  validUntil,
		accessLevel: accessLevel,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (a *AccessPrivilege) ID() uint              { return a.id }
func (a *AccessPrivilege) BranchID() string      { return a.branchID }
func (a *AccessPrivilege) PersonID() string      { return a.personID }
func (a *AccessPrivilege) DoorID() string        { return a.doorID }
func (a *AccessPrivilege) ValidFrom() time.Time  { return a.validFrom }
func (a *AccessPrivilege) ValidUntil() time.Time { return a.validUntil }
func (a *AccessPrivilege) AccessLevel() string   { return a.accessLevel }
func (a *AccessPrivilege) CreatedAt() time.Time  { return a.createdAt }
func (a *AccessPrivilege) UpdatedAt() time.Time  { return a.updatedAt }

// SetID sets the ID (only for persistence layer use)
func (a *AccessPrivilege) SetID(id uint) {
	a.id = id
}
