package model

import "time"

const (
	// EventSource tags every event produced by the scheduling engine.
	EventSource = "ai_scheduler"
	// EventStatusScheduled is the only status the engine emits.
	EventStatusScheduled = "scheduled"
)

// CalendarEvent is a scheduled placement of one task. The whole event set is
// regenerated on every reschedule; one event per active task.
type CalendarEvent struct {
	EventID   string `gorm:"primaryKey"`
	TaskID    string `gorm:"index"`
	Title     string
	StartAt   time.Time `gorm:"index"`
	EndAt     time.Time
	Source    string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventIDForTask derives the deterministic event id for a task, so repeated
// reschedules overwrite rather than accumulate.
func EventIDForTask(taskID string) string {
	return "evt-" + taskID
}
