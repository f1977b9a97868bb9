package hikvision

import (
	"context"
	"errors"
	"time"

	"github.com/fitdesk/accessgate/internal/shared/biztime"
)

// FindPersonByEmployeeNo looks a person up by the employee number the gym assigns
// (its member id). It returns nil without error when no person matches.
func (c *Client) FindPersonByEmployeeNo(ctx context.Context, employeeNo string) (*PersonInfo, error) {
	var data personSearchData
	err := c.call(ctx, PathPersonsGet, personSearchRequest{EmployeeNo: employeeNo, PageIndex: 1, PageSize: 1}, &data)
	if err != nil {
		return nil, err
	}
	for i := range data.PersonList {
		if data.PersonList[i].EmployeeNo == employeeNo {
			return &data.PersonList[i], nil
		}
	}
	return nil, nil
}

// AddPerson creates a provider person for a member.
func (c *Client) AddPerson(ctx context.Context, employeeNo, name string) (*PersonInfo, error) {
	var data personAddData
	if err := c.call(ctx, PathPersonsAdd, personAddRequest{EmployeeNo: employeeNo, PersonName: name}, &data); err != nil {
		return nil, err
	}
	if data.PersonID == "" {
		return nil, errors.New("person add response has no person id")
	}
	return &PersonInfo{PersonID: data.PersonID, EmployeeNo: employeeNo, PersonName: name}, nil
}

// NewPrivilege builds a privilege request. Times are sent in the business timezone.
func NewPrivilege(personID, serialNo string, doorNo int, validFrom, validUntil time.Time, accessLevel string) Privilege {
	p := Privilege{
		PersonID:    personID,
		SerialNo:    serialNo,
		DoorNo:      doorNo,
		AccessLevel: accessLevel,
	}
	if !validFrom.IsZero() {
		p.BeginTime = validFrom.In(biztime.Location()).Format(time.RFC3339)
	}
	if !validUntil.IsZero() {
		p.EndTime = validUntil.In(biztime.Location()).Format(time.RFC3339)
	}
	return p
}

// AddPrivilege grants or refreshes a door privilege. The provider treats a repeat as an update.
func (c *Client) AddPrivilege(ctx context.Context, p Privilege) error {
	return c.call(ctx, PathPrivilegeAdd, p, nil)
}

func (c *Client) DeletePrivilege(ctx context.Context, p Privilege) error {
	return c.call(ctx, PathPrivilegeDel, p, nil)
}
