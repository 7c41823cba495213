package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"beacon-scheduler/internal/model"
)

// EventRepository persists calendar events.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events ordered by start time, optionally bounded to a range.
func (r *EventRepository) List(ctx context.Context, start, end *time.Time, limit int) ([]model.CalendarEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	q := r.db.WithContext(ctx).Order("start_at ASC").Limit(limit)
	if start != nil {
		q = q.Where("start_at >= ?", *start)
	}
	if end != nil {
		q = q.Where("start_at <= ?", *end)
	}
	var events []model.CalendarEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Replace atomically clears the event table and inserts the new set. Events
// created outside the engine are discarded on purpose: the table always
// reflects exactly one complete scheduling pass.
func (r *EventRepository) Replace(ctx context.Context, events []model.CalendarEvent) (int, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.CalendarEvent{}).Error; err != nil {
			return fmt.Errorf("clear events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(events), nil
}
