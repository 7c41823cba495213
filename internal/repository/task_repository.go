package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"beacon-scheduler/internal/model"
)

// TaskRepository persists tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns up to limit tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = 200
	}
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Upsert inserts or updates tasks keyed by id. created_at is preserved on
// update so listing order stays stable across reschedules.
func (r *TaskRepository) Upsert(ctx context.Context, tasks []model.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "module", "due_at", "weight_percent", "estimated_hours",
			"priority_score", "priority_band", "completed", "notes", "updated_at",
		}),
	}).Create(&tasks).Error
	if err != nil {
		return 0, fmt.Errorf("upsert tasks: %w", err)
	}
	return len(tasks), nil
}
