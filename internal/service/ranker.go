package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"beacon-scheduler/internal/model"
	"beacon-scheduler/internal/oracle"
)

// Ranker produces a total order over active tasks. The oracle is advisory:
// any failure or omission falls back to the score already stored on the task.
type Ranker struct {
	oracle oracle.Oracle
	log    zerolog.Logger
}

// NewRanker builds a ranker. A nil oracle means ranking runs entirely on
// stored scores.
func NewRanker(o oracle.Oracle, log zerolog.Logger) *Ranker {
	return &Ranker{oracle: o, log: log}
}

// Rank scores and sorts the given tasks: score descending, ties broken by
// due date ascending with undated tasks last. Each task's stored score and
// band are updated in place to the score actually used, keeping later passes
// stable when the oracle stays unavailable.
func (r *Ranker) Rank(ctx context.Context, tasks []model.Task) []model.Task {
	if len(tasks) == 0 {
		return tasks
	}

	scores := r.rateTasks(ctx, tasks)
	for i := range tasks {
		if score, ok := scores[tasks[i].ID]; ok {
			tasks[i].PriorityScore = score
		}
		tasks[i].PriorityBand = model.BandForScore(tasks[i].PriorityScore)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].PriorityScore != tasks[j].PriorityScore {
			return tasks[i].PriorityScore > tasks[j].PriorityScore
		}
		switch {
		case tasks[i].DueAt == nil:
			return false
		case tasks[j].DueAt == nil:
			return true
		default:
			return tasks[i].DueAt.Before(*tasks[j].DueAt)
		}
	})
	return tasks
}

func (r *Ranker) rateTasks(ctx context.Context, tasks []model.Task) map[string]int {
	if r.oracle == nil {
		return nil
	}

	summaries := make([]oracle.TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summary := oracle.TaskSummary{
			ID:             task.ID,
			Title:          task.Title,
			Module:         task.Module,
			WeightPercent:  task.WeightPercent,
			EstimatedHours: task.EstimatedHours,
			Notes:          task.Notes,
		}
		if task.DueAt != nil {
			summary.DueAt = task.DueAt.UTC().Format(time.RFC3339)
		}
		summaries = append(summaries, summary)
	}

	scores, err := r.oracle.RateTasks(ctx, summaries)
	if err != nil {
		// Advisory only: stored scores carry the ranking instead.
		r.log.Warn().Err(err).Int("tasks", len(tasks)).Msg("priority oracle unavailable, using stored scores")
		return nil
	}
	return scores
}
