package accesscontrol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrSerialNumberRequired = errors.New("device serial number is required")

// Door is one controllable door of a device.
type Door struct {
	DoorNo     int    `json:"door_no"`
	DoorName   string `json:"door_name"`
	DoorStatus string `json:"door_status"`
}

// DoorID addresses a door across the branch as "<serial>-<doorNo>".
func DoorID(serialNumber string, doorNo int) string {
	return serialNumber + "-" + strconv.Itoa(doorNo)
}

// ParseDoorID splits a DoorID. Serial numbers may contain '-', so the last one separates the door number.
func ParseDoorID(doorID string) (serialNumber string, doorNo int, err error) {
	i := strings.LastIndex(doorID, "-")
	if i <= 0 || i == len(doorID)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidDoorID, doorID)
	}
	doorNo, err = strconv.Atoi(doorID[i+1:])
	if err != nil || doorNo < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidDoorID, doorID)
	}
	return doorID[:i], doorNo, nil
}

// Device is the local cached copy of a provider device.
// It is only mutated by a successful sync.
type Device struct {
	id             uint
	branchID       string
	serialNumber   string
	name           string
	deviceType     string
	isOnline       bool
	isCloudManaged bool
	isStale        bool
	doors          []Door
	lastSyncedAt   time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewSyncedDevice builds a device from a provider listing observed at syncedAt.
func NewSyncedDevice(
	branchID, serialNumber, name, deviceType string,
	isOnline, isCloudManaged bool,
	doors []Door,
	syncedAt time.Time,
) (*Device, error) {
	if strings.TrimSpace(branchID) == "" {
		return nil, ErrBranchIDRequired
	}
	if strings.TrimSpace(serialNumber) == "" {
		return nil, ErrSerialNumberRequired
	}
	return &Device{
		branchID:       branchID,
		serialNumber:   serialNumber,
		name:           name,
		deviceType:     deviceType,
		isOnline:       isOnline,
		isCloudManaged: isCloudManaged,
		doors:          append([]Door(nil), doors...),
		lastSyncedAt:   syncedAt,
		createdAt:      syncedAt,
		updatedAt:      syncedAt,
	}, nil
}

func ReconstructDevice(
	id uint,
	branchID, serialNumber, name, deviceType string,
	isOnline, isCloudManaged, isStale bool,
	doors []Door,
	lastSyncedAt, createdAt, updatedAt time.Time,
) *Device {
	return &Device{
		id:             id,
		branchID:       branchID,
		serialNumber:   serialNumber,
		name:           name,
		deviceType:     deviceType,
		isOnline:       isOnline,
		isCloudManaged: isCloudManaged,
		isStale:        isStale,
		doors:          doors,
		lastSyncedAt:   lastSyncedAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (d *Device) ID() uint                { return d.id }
func (d *Device) BranchID() string        { return d.branchID }
func (d *Device) SerialNumber() string    { return d.serialNumber }
func (d *Device) Name() string            { return d.name }
func (d *Device) DeviceType() string      { return d.deviceType }
func (d *Device) IsOnline() bool          { return d.isOnline }
func (d *Device) IsCloudManaged() bool    { return d.isCloudManaged }
func (d *Device) IsStale() bool           { return d.isStale }
func (d *Device) LastSyncedAt() time.Time { return d.lastSyncedAt }
func (d *Device) CreatedAt() time.Time    { return d.createdAt }
func (d *Device) UpdatedAt() time.Time    { return d.updatedAt }

// Doors returns a copy of the device's doors.
func (d *Device) Doors() []Door {
	return append([]Door(nil), d.doors...)
}

// Door looks up a door by number.
func (d *Device) Door(doorNo int) (Door, bool) {
	for _, door := range d.doors {
		if door.DoorNo == doorNo {
			return door, true
		}
	}
	return Door{}, false
}

// DoorIDs returns the branch-wide IDs of all doors on the device.
func (d *Device) DoorIDs() []string {
	ids := make([]string, 0, len(d.doors))
	for _, door := range d.doors {
		ids = append(ids, DoorID(d.serialNumber, door.DoorNo))
	}
	return ids
}

// SetID sets the ID (only for persistence layer use)
func (d *Device) SetID(id uint) {
	d.id = id
}
