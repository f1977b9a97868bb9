package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/mappers"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// EventRepository implements accesscontrol.EventRepository
type EventRepository struct {
	db     *gorm.DB
	logger logger.Interface
	mapper mappers.EventMapper
}

func NewEventRepository(db *gorm.DB, logger logger.Interface) *EventRepository {
	return &EventRepository{
		db:     db,
		logger: logger,
		mapper: mappers.NewEventMapper(),
	}
}

func (r *EventRepository) SaveIfAbsent(ctx context.Context, event *accesscontrol.Event) (*accesscontrol.Event, error) {
	model := r.mapper.ToModel(event)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to store event", "event_id", event.EventID(), "branch_id", event.BranchID(), "error", err)
		return nil, fmt.Errorf("failed to store event: %w", err)
	}
	return r.GetByEventID(ctx, event.EventID())
}

func (r *EventRepository) MarkProcessed(ctx context.Context, eventID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EventModel{}).
		Where("event_id = ? AND processed = ?", eventID, false).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": at.UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *EventRepository) GetByEventID(ctx context.Context, eventID string) (*accesscontrol.Event, error) {
	var model models.EventModel
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accesscontrol.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *EventRepository) ListByBranch(ctx context.Context, branchID string, since time.Time, limit int) ([]*accesscontrol.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var modelList []*models.EventModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND event_time >= ?", branchID, since.UTC()).
		Order("event_time DESC").
		Limit(limit).
		Find(&modelList).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := make([]*accesscontrol.Event, 0, len(modelList))
	for _, m := range modelList {
		events = append(events, r.mapper.ToDomain(m))
	}
	return events, nil
}
