package accesscontrol

import (
	"errors"
	"time"
)

var ErrEventIDRequired = errors.New("event id is required")

type EventType string

const (
	EventTypeEntry  EventType = "entry"
	EventTypeExit   EventType = "exit"
	EventTypeDenied EventType = "denied"
)

// EventSource records which ingress path first delivered an event.
type EventSource string

const (
	EventSourcePoll    EventSource = "poll"
	EventSourceWebhook EventSource = "webhook"
)

// Event is a normalized door event. Everything but the processed flag is immutable;
// processed moves from false to true once.
type Event struct {
	id          uint
	eventID     string
	branchID    string
	eventType   EventType
	eventTime   time.Time
	deviceID    string
	doorID      string
	personID    string
	memberID    string
	cardNo      string
	pictureURL  string
	offset      int64
	source      EventSource
	processed   bool
	processedAt *time.Time
	receivedAt  time.Time
}

// EventFields carries the provider-supplied attributes of a new event.
type EventFields struct {
	EventID    string
	BranchID   string
	Type       EventType
	Time       time.Time
	DeviceID   string
	DoorID     string
	PersonID   string
	MemberID   string
	CardNo     string
	PictureURL string
	Offset     int64
	Source     EventSource
}

func NewEvent(f EventFields, receivedAt time.Time) (*Event, error) {
	if f.EventID == "" {
		return nil, ErrEventIDRequired
	}
	if f.BranchID == "" {
		return nil, ErrBranchIDRequired
	}
	return &Event{
		eventID:    f.EventID,
		branchID:   f.BranchID,
		eventType:  f.Type,
		eventTime:  f.Time.UTC(),
		deviceID:   f.DeviceID,
		doorID:     f.DoorID,
		personID:   f.PersonID,
		memberID:   f.MemberID,
		cardNo:     f.CardNo,
		pictureURL: f.PictureURL,
		offset:     f.Offset,
		source:     f.Source,
		receivedAt: receivedAt.UTC(),
	}, nil
}

func ReconstructEvent(id uint, f EventFields, processed bool, processedAt *time.Time, receivedAt time.Time) *Event {
	return &Event{
		id:          id,
		eventID:     f.EventID,
		branchID:    f.BranchID,
		eventType:   f.Type,
		eventTime:   f.Time,
		deviceID:    f.DeviceID,
		doorID:      f.DoorID,
		personID:    f.PersonID,
		memberID:    f.MemberID,
		cardNo:      f.CardNo,
		pictureURL:  f.PictureURL,
		offset:      f.Offset,
		source:      f.Source,
		processed:   processed,
		processedAt: processedAt,
		receivedAt:  receivedAt,
	}
}

func (e *Event) ID() uint                { return e.id }
func (e *Event) EventID() string         { return e.eventID }
func (e *Event) BranchID() string        { return e.branchID }
func (e *Event) Type() EventType         { return e.eventType }
func (e *Event) Time() time.Time         { return e.eventTime }
func (e *Event) DeviceID() string        { return e.deviceID }
func (e *Event) DoorID() string          { return e.doorID }
func (e *Event) PersonID() string        { return e.personID }
func (e *Event) MemberID() string        { return e.memberID }
func (e *Event) CardNo() string          { return e.cardNo }
func (e *Event) PictureURL() string      { return e.pictureURL }
func (e *Event) Offset() int64           { return e.offset }
func (e *Event) Source() EventSource     { return e.source }
func (e *Event) IsProcessed() bool       { return e.processed }
func (e *Event) ProcessedAt() *time.Time { return e.processedAt }
func (e *Event) ReceivedAt() time.Time   { return e.receivedAt }

// Fields returns the provider-supplied attributes.
func (e *Event) Fields() EventFields {
	return EventFields{
		EventID:    e.eventID,
		BranchID:   e.branchID,
		Type:       e.eventType,
		Time:       e.eventTime,
		DeviceID:   e.deviceID,
		DoorID:     e.doorID,
		PersonID:   e.personID,
		MemberID:   e.memberID,
		CardNo:     e.cardNo,
		PictureURL: e.pictureURL,
		Offset:     e.offset,
		Source:     e.source,
	}
}

// MarkProcessed returns false if the event was already processed.
func (e *Event) MarkProcessed(at time.Time) bool {
	if e.processed {
		return false
	}
	at = at.UTC()
	e.processed = true
	e.processedAt = &at
	return true
}

// SetID sets the ID (only for persistence layer use)
func (e *Event) SetID(id uint) {
	e.id = id
}
