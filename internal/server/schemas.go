package server

import (
	"time"

	"beacon-scheduler/internal/model"
)

type taskCreateRequest struct {
	Title          string `json:"title" binding:"required"`
	Module         string `json:"module"`
	DueAt          string `json:"due_at"`
	WeightPercent  int    `json:"weight_percent" binding:"gte=0,lte=100"`
	EstimatedHours int    `json:"estimated_hours" binding:"gte=0,lte=100"`
	Notes          string `json:"notes"`
}

type taskPatchRequest struct {
	Title          *string `json:"title"`
	Module         *string `json:"module"`
	DueAt          *string `json:"due_at"`
	WeightPercent  *int    `json:"weight_percent" binding:"omitempty,gte=0,lte=100"`
	EstimatedHours *int    `json:"estimated_hours" binding:"omitempty,gte=0,lte=100"`
	Notes          *string `json:"notes"`
	Completed      *bool   `json:"completed"`
}

type eventSchema struct {
	EventID   string `json:"event_id"`
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type eventsResponse struct {
	Count  int           `json:"count"`
	Events []eventSchema `json:"events"`
}

type taskResponse struct {
	TaskID         string        `json:"task_id"`
	Title          string        `json:"title"`
	Module         string        `json:"module"`
	DueAt          string        `json:"due_at,omitempty"`
	EstimatedHours int           `json:"estimated_hours"`
	PriorityScore  int           `json:"priority_score"`
	PriorityBand   string        `json:"priority_band"`
	Completed      bool          `json:"completed"`
	Events         []eventSchema `json:"events"`
}

type rescheduleResponse struct {
	RescheduledCount int           `json:"rescheduled_count"`
	Events           []eventSchema `json:"events"`
}

func toEventSchemas(events []model.CalendarEvent) []eventSchema {
	out := make([]eventSchema, 0, len(events))
	for _, ev := range events {
		schema := eventSchema{
			EventID: ev.EventID,
			TaskID:  ev.TaskID,
			Title:   ev.Title,
			StartAt: formatUTC(ev.StartAt),
			EndAt:   formatUTC(ev.EndAt),
			Source:  ev.Source,
			Status:  ev.Status,
		}
		if !ev.CreatedAt.IsZero() {
			schema.CreatedAt = formatUTC(ev.CreatedAt)
		}
		if !ev.UpdatedAt.IsZero() {
			schema.UpdatedAt = formatUTC(ev.UpdatedAt)
		}
		out = append(out, schema)
	}
	return out
}

func toTaskResponse(task model.Task, events []model.CalendarEvent) taskResponse {
	resp := taskResponse{
		TaskID:         task.ID,
		Title:          task.Title,
		Module:         task.Module,
		EstimatedHours: task.EstimatedHours,
		PriorityScore:  task.PriorityScore,
		PriorityBand:   task.PriorityBand,
		Completed:      task.Completed,
		Events:         toEventSchemas(events),
	}
	if task.DueAt != nil {
		resp.DueAt = formatUTC(*task.DueAt)
	}
	return resp
}

// formatUTC renders a timestamp as ISO-8601 UTC with a Z suffix, the only
// form that crosses the API boundary.
func formatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseISO accepts ISO-8601 with Z suffix, an explicit offset, or a naive
// timestamp (treated as UTC). Anything else is nil: an unparsable due date
// means "no deadline", never an error.
func parseISO(value string) *time.Time {
	raw := value
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return nil
}
