package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
)

// resolvedDoor is a door id checked against the branch registry.
type resolvedDoor struct {
	doorID   string
	serialNo string
	doorNo   int
}

// resolveDoor checks that doorID names a door of a live device of the branch.
func resolveDoor(ctx context.Context, devices accesscontrol.DeviceRepository, branchID, doorID string) (resolvedDoor, error) {
	serial, doorNo, err := accesscontrol.ParseDoorID(doorID)
	if err != nil {
		return resolvedDoor{}, err
	}

	device, err := devices.GetBySerial(ctx, branchID, serial)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrDeviceNotFound) {
			return resolvedDoor{}, fmt.Errorf("%w: %s", accesscontrol.ErrDoorNotFound, doorID)
		}
		return resolvedDoor{}, fmt.Errorf("failed to load device %s: %w", serial, err)
	}
	if device.IsStale() {
		return resolvedDoor{}, fmt.Errorf("%w: device %s is no longer listed by the provider", accesscontrol.ErrDoorNotFound, serial)
	}
	if _, ok := device.Door(doorNo); !ok {
		return resolvedDoor{}, fmt.Errorf("%w: %s", accesscontrol.ErrDoorNotFound, doorID)
	}
	return resolvedDoor{doorID: doorID, serialNo: serial, doorNo: doorNo}, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
