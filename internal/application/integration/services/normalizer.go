package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/biztime"
)

// ErrEventRejected marks a provider event that cannot be normalized.
var ErrEventRejected = errors.New("event rejected")

// Access event codes reported by controllers. Granted codes are passes by card,
// fingerprint or face; denied codes are refused authentications.
var (
	grantedEventCodes = map[int]bool{
		1:  true, // valid card
		38: true, // fingerprint matched
		75: true, // face verified
	}
	deniedEventCodes = map[int]bool{
		6:  true, // card has no permission
		7:  true, // card outside schedule
		8:  true, // card expired
		9:  true, // card not registered
		39: true, // fingerprint mismatch
		76: true, // face verification failed
	}
)

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEventRejected, fmt.Sprintf(format, args...))
}

// NormalizeEvent turns a raw provider event into a domain event of branchID.
func NormalizeEvent(branchID string, source accesscontrol.EventSource, raw hikvision.RawEvent, receivedAt time.Time) (*accesscontrol.Event, error) {
	if strings.TrimSpace(raw.EventID) == "" {
		return nil, rejectf("missing event id")
	}
	data, err := raw.AccessData()
	if err != nil {
		return nil, rejectf("%v", err)
	}
	if data.SerialNo == "" {
		return nil, rejectf("missing device serial")
	}

	eventType, err := classify(data.EventCode, data.Direction)
	if err != nil {
		return nil, err
	}

	occurred, err := biztime.ParseProviderTime(data.OccurTime)
	if err != nil {
		return nil, rejectf("%v", err)
	}

	doorID := ""
	if data.DoorNo > 0 {
		doorID = accesscontrol.DoorID(data.SerialNo, data.DoorNo)
	}

	event, err := accesscontrol.NewEvent(accesscontrol.EventFields{
		EventID:    raw.EventID,
		BranchID:   branchID,
		Type:       eventType,
		Time:       occurred,
		DeviceID:   data.SerialNo,
		DoorID:     doorID,
		PersonID:   data.PersonID,
		MemberID:   data.EmployeeNo,
		CardNo:     data.CardNo,
		PictureURL: data.PictureURL,
		Offset:     raw.Offset,
		Source:     source,
	}, receivedAt)
	if err != nil {
		return nil, rejectf("%v", err)
	}
	return event, nil
}

func classify(code int, direction string) (accesscontrol.EventType, error) {
	switch {
	case grantedEventCodes[code]:
		switch strings.ToLower(direction) {
		case "out", "exit":
			return accesscontrol.EventTypeExit, nil
		case "", "in", "entry":
			return accesscontrol.EventTypeEntry, nil
		default:
			return "", rejectf("unknown direction %q", direction)
		}
	case deniedEventCodes[code]:
		return accesscontrol.EventTypeDenied, nil
	default:
		return "", rejectf("unknown event code %d", code)
	}
}
