// Package oracle rates task batches with an external LLM. The oracle is
// strictly advisory: callers must tolerate timeouts, partial answers, and
// garbage, and fall back to previously stored scores.
package oracle

import "context"

// TaskSummary is the per-task payload sent to the oracle for rating.
type TaskSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Module         string `json:"module"`
	DueAt          string `json:"due_at,omitempty"`
	WeightPercent  int    `json:"weight_percent"`
	EstimatedHours int    `json:"estimated_hours"`
	Notes          string `json:"notes,omitempty"`
}

// Oracle scores a batch of tasks. The returned map may omit ids or contain
// extra ones; both are the caller's problem.
type Oracle interface {
	RateTasks(ctx context.Context, tasks []TaskSummary) (map[string]int, error)
}
