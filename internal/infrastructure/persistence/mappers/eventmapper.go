package mappers

import (
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
)

// EventMapper converts between access events and models
type EventMapper interface {
	ToDomain(model *models.EventModel) *accesscontrol.Event
	ToModel(entity *accesscontrol.Event) *models.EventModel
}

type EventMapperImpl struct{}

func NewEventMapper() EventMapper {
	return &EventMapperImpl{}
}

func (m *EventMapperImpl) ToDomain(model *models.EventModel) *accesscontrol.Event {
	if model == nil {
		return nil
	}
	return accesscontrol.ReconstructEvent(
		model.ID,
		accesscontrol.EventFields{
			EventID:    model.EventID,
			BranchID:   model.BranchID,
			Type:       accesscontrol.EventType(model.EventType),
			Time:       model.EventTime.UTC(),
			DeviceID:   model.DeviceID,
			DoorID:     model.DoorID,
			PersonID:   model.PersonID,
			MemberID:   model.MemberID,
			CardNo:     model.CardNo,
			PictureURL: model.PictureURL,
			Offset:     model.Offset,
			Source:     accesscontrol.EventSource(model.Source),
		},
		model.Processed,
		model.ProcessedAt,
		model.ReceivedAt.UTC(),
	)
}

func (m *EventMapperImpl) ToModel(entity *accesscontrol.Event) *models.EventModel {
	if entity == nil {
		return nil
	}
	f := entity.Fields()
	return &models.EventModel{
		ID:          entity.ID(),
		EventID:     f.EventID,
		BranchID:    f.BranchID,
		EventType:   string(f.Type),
		EventTime:   f.Time,
		DeviceID:    f.DeviceID,
		DoorID:      f.DoorID,
		PersonID:    f.PersonID,
		MemberID:    f.MemberID,
		CardNo:      f.CardNo,
		PictureURL:  f.PictureURL,
		Offset:      f.Offset,
		Source:      string(f.Source),
		Processed:   entity.IsProcessed(),
		ProcessedAt: entity.ProcessedAt(),
		ReceivedAt:  entity.ReceivedAt(),
	}
}
