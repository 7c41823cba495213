package service

import (
	"sort"
	"time"

	"beacon-scheduler/internal/model"
)

const (
	// Blocks are clamped to [30m, 8h] no matter how wild the estimate is.
	minBlockMinutes = 30
	maxBlockMinutes = 8 * 60

	// Buffer reserved between consecutive blocks.
	bufferMinutes = 30
)

// Planner packs ranked tasks into non-overlapping blocks inside a daily
// working window. Placement happens in the scheduling timezone; emitted
// events are UTC.
type Planner struct {
	loc         *time.Location
	windowStart int // minutes from local midnight
	windowEnd   int
}

func NewPlanner(loc *time.Location, windowStart, windowEnd int) *Planner {
	return &Planner{loc: loc, windowStart: windowStart, windowEnd: windowEnd}
}

// BuildEvents runs a single greedy forward pass over the ranked tasks.
// Tasks with due dates may be pulled backward toward their deadline when the
// backward slot is not before "now" or the cursor; everything else packs
// forward from "now". The result is sorted by start time because backward
// fits can reorder placements relative to ranking order.
func (p *Planner) BuildEvents(tasks []model.Task, now time.Time) []model.CalendarEvent {
	if len(tasks) == 0 {
		return []model.CalendarEvent{}
	}

	nowLocal := roundUpHalfHour(now.In(p.loc))
	cursor := nowLocal
	events := make([]model.CalendarEvent, 0, len(tasks))

	for _, task := range tasks {
		duration := blockDuration(task.EstimatedHours)
		start := p.fitWindow(cursor, duration)

		if task.DueAt != nil {
			candidate := roundUpHalfHour(task.DueAt.In(p.loc).Add(-duration))
			candidate = p.fitWindow(candidate, duration)
			if !candidate.Before(nowLocal) && !candidate.Before(cursor) {
				start = candidate
			}
		}

		end := start.Add(duration)
		events = append(events, model.CalendarEvent{
			EventID: model.EventIDForTask(task.ID),
			TaskID:  task.ID,
			Title:   task.Title,
			StartAt: start.UTC(),
			EndAt:   end.UTC(),
			Source:  model.EventSource,
			Status:  model.EventStatusScheduled,
		})
		cursor = roundUpHalfHour(end.Add(bufferMinutes * time.Minute))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartAt.Before(events[j].StartAt)
	})
	return events
}

// fitWindow returns the earliest start at or after cursor where a block of
// the given duration lies entirely within a day's working window, rolling
// forward day by day until it fits.
func (p *Planner) fitWindow(cursor time.Time, duration time.Duration) time.Time {
	for {
		year, month, day := cursor.Date()
		dayStart := time.Date(year, month, day, p.windowStart/60, p.windowStart%60, 0, 0, p.loc)
		dayEnd := time.Date(year, month, day, p.windowEnd/60, p.windowEnd%60, 0, 0, p.loc)

		if cursor.Before(dayStart) {
			cursor = dayStart
		}
		if !cursor.Add(duration).After(dayEnd) {
			return cursor
		}
		cursor = dayStart.AddDate(0, 0, 1)
	}
}

// blockDuration clamps the effort estimate into the allowed block range.
func blockDuration(estimatedHours int) time.Duration {
	minutes := estimatedHours * 60
	if minutes < minBlockMinutes {
		minutes = minBlockMinutes
	}
	if minutes > maxBlockMinutes {
		minutes = maxBlockMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// roundUpHalfHour rounds up to the next half-hour boundary; times already on
// a boundary are unchanged.
func roundUpHalfHour(t time.Time) time.Time {
	if t.Minute()%30 == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	truncated := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	if t.Minute() < 30 {
		return truncated.Add(30 * time.Minute)
	}
	return truncated.Add(60 * time.Minute)
}
