package service

import (
	"testing"
	"time"

	"beacon-scheduler/internal/model"
)

func utcPlanner() *Planner {
	return NewPlanner(time.UTC, 9*60, 21*60)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestRoundUpHalfHour(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"on hour boundary", time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC), time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)},
		{"on half hour boundary", time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC), time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC)},
		{"just past hour", time.Date(2026, 2, 20, 10, 1, 0, 0, time.UTC), time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC)},
		{"just past half hour", time.Date(2026, 2, 20, 10, 31, 0, 0, time.UTC), time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)},
		{"boundary with seconds", time.Date(2026, 2, 20, 10, 30, 12, 0, time.UTC), time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)},
		{"rolls into next day", time.Date(2026, 2, 20, 23, 45, 0, 0, time.UTC), time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundUpHalfHour(tt.in); !got.Equal(tt.want) {
				t.Errorf("roundUpHalfHour(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBlockDuration(t *testing.T) {
	tests := []struct {
		hours int
		want  time.Duration
	}{
		{0, 30 * time.Minute},
		{1, time.Hour},
		{8, 8 * time.Hour},
		{9, 8 * time.Hour},
		{100, 8 * time.Hour},
	}
	for _, tt := range tests {
		if got := blockDuration(tt.hours); got != tt.want {
			t.Errorf("blockDuration(%d) = %v, want %v", tt.hours, got, tt.want)
		}
	}
}

func TestFitWindow(t *testing.T) {
	p := utcPlanner()
	tests := []struct {
		name   string
		cursor time.Time
		dur    time.Duration
		want   time.Time
	}{
		{
			"before window snaps to start",
			time.Date(2026, 2, 20, 7, 0, 0, 0, time.UTC), time.Hour,
			time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
		},
		{
			"inside window unchanged",
			time.Date(2026, 2, 20, 14, 30, 0, 0, time.UTC), time.Hour,
			time.Date(2026, 2, 20, 14, 30, 0, 0, time.UTC),
		},
		{
			"fits exactly at window end",
			time.Date(2026, 2, 20, 20, 0, 0, 0, time.UTC), time.Hour,
			time.Date(2026, 2, 20, 20, 0, 0, 0, time.UTC),
		},
		{
			"overflows to next day",
			time.Date(2026, 2, 20, 20, 30, 0, 0, time.UTC), time.Hour,
			time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC),
		},
		{
			"after window rolls forward",
			time.Date(2026, 2, 20, 22, 0, 0, 0, time.UTC), time.Hour,
			time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.fitWindow(tt.cursor, tt.dur); !got.Equal(tt.want) {
				t.Errorf("fitWindow(%v, %v) = %v, want %v", tt.cursor, tt.dur, got, tt.want)
			}
		})
	}
}

func TestBuildEventsEmpty(t *testing.T) {
	events := utcPlanner().BuildEvents(nil, time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC))
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestBuildEventsWindowContainmentAndNoOverlap(t *testing.T) {
	now := time.Date(2026, 2, 20, 8, 11, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "t1", Title: "one", EstimatedHours: 4},
		{ID: "t2", Title: "two", EstimatedHours: 8},
		{ID: "t3", Title: "three", EstimatedHours: 2},
		{ID: "t4", Title: "four", EstimatedHours: 0},
	}

	events := utcPlanner().BuildEvents(tasks, now)
	if len(events) != len(tasks) {
		t.Fatalf("expected %d events, got %d", len(tasks), len(events))
	}

	for _, ev := range events {
		start := ev.StartAt.In(time.UTC)
		end := ev.EndAt.In(time.UTC)
		dayStart := time.Date(start.Year(), start.Month(), start.Day(), 9, 0, 0, 0, time.UTC)
		dayEnd := time.Date(start.Year(), start.Month(), start.Day(), 21, 0, 0, 0, time.UTC)
		if start.Before(dayStart) || end.After(dayEnd) {
			t.Errorf("event %s [%v, %v) escapes working window", ev.EventID, start, end)
		}
		if !end.After(start) {
			t.Errorf("event %s has non-positive duration", ev.EventID)
		}
	}

	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			a, b := events[i], events[j]
			if a.StartAt.Before(b.EndAt) && b.StartAt.Before(a.EndAt) {
				t.Errorf("events %s and %s overlap", a.EventID, b.EventID)
			}
		}
	}

	for i := 1; i < len(events); i++ {
		if events[i].StartAt.Before(events[i-1].StartAt) {
			t.Errorf("events not sorted by start time at index %d", i)
		}
	}
}

func TestBuildEventsDurationClamping(t *testing.T) {
	now := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "zero", Title: "zero hours", EstimatedHours: 0},
		{ID: "huge", Title: "hundred hours", EstimatedHours: 100},
	}

	events := utcPlanner().BuildEvents(tasks, now)
	byTask := make(map[string]model.CalendarEvent)
	for _, ev := range events {
		byTask[ev.TaskID] = ev
	}

	if got := byTask["zero"].EndAt.Sub(byTask["zero"].StartAt); got != 30*time.Minute {
		t.Errorf("zero-hour task duration = %v, want 30m", got)
	}
	if got := byTask["huge"].EndAt.Sub(byTask["huge"].StartAt); got != 8*time.Hour {
		t.Errorf("hundred-hour task duration = %v, want 8h", got)
	}
}

// Ranked order is [B, A]: B carries a near-term due date and is pulled
// backward toward it, A packs forward behind it.
func TestBuildEventsDeadlinePullForward(t *testing.T) {
	now := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	due := time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)
	ranked := []model.Task{
		{ID: "b", Title: "B", EstimatedHours: 1, PriorityScore: 90, DueAt: ptrTime(due)},
		{ID: "a", Title: "A", EstimatedHours: 2, PriorityScore: 90},
	}

	events := utcPlanner().BuildEvents(ranked, now)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	byTask := make(map[string]model.CalendarEvent)
	for _, ev := range events {
		byTask[ev.TaskID] = ev
	}

	wantBStart := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	if !byTask["b"].StartAt.Equal(wantBStart) {
		t.Errorf("B start = %v, want %v (backward fit at due-duration)", byTask["b"].StartAt, wantBStart)
	}
	wantAStart := time.Date(2026, 2, 20, 11, 30, 0, 0, time.UTC)
	if !byTask["a"].StartAt.Equal(wantAStart) {
		t.Errorf("A start = %v, want %v (forward fit after B plus buffer)", byTask["a"].StartAt, wantAStart)
	}
}

// A due date in the past must not pull a block before "now": the backward
// candidate is rejected and the task packs forward.
func TestBuildEventsOverdueTaskPacksForward(t *testing.T) {
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	due := time.Date(2026, 2, 19, 10, 0, 0, 0, time.UTC)
	ranked := []model.Task{
		{ID: "late", Title: "overdue", EstimatedHours: 1, DueAt: ptrTime(due)},
	}

	events := utcPlanner().BuildEvents(ranked, now)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].StartAt.Before(now) {
		t.Errorf("overdue task placed at %v, before now %v", events[0].StartAt, now)
	}
}

// A backward candidate that lands after "now" but before the cursor would
// overlap an already-placed block; it must be rejected and the task packed
// forward instead.
func TestBuildEventsBackwardFitRespectsCursor(t *testing.T) {
	now := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	due := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	ranked := []model.Task{
		{ID: "big", Title: "long block", EstimatedHours: 4},
		{ID: "due", Title: "due midday", EstimatedHours: 1, DueAt: ptrTime(due)},
	}

	events := utcPlanner().BuildEvents(ranked, now)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	byTask := make(map[string]model.CalendarEvent)
	for _, ev := range events {
		byTask[ev.TaskID] = ev
	}

	// big: 09:00-13:00, cursor 13:30. Backward candidate for due is 11:00,
	// at/after now but before the cursor, so forward placement wins.
	wantStart := time.Date(2026, 2, 20, 13, 30, 0, 0, time.UTC)
	if !byTask["due"].StartAt.Equal(wantStart) {
		t.Errorf("due task start = %v, want %v (backward fit before cursor rejected)", byTask["due"].StartAt, wantStart)
	}
	if a, b := byTask["big"], byTask["due"]; a.StartAt.Before(b.EndAt) && b.StartAt.Before(a.EndAt) {
		t.Error("backward fit produced overlapping events")
	}
}

func TestBuildEventsRollsToNextDay(t *testing.T) {
	// 20:30 cursor cannot hold a 2h block before 21:00.
	now := time.Date(2026, 2, 20, 20, 15, 0, 0, time.UTC)
	ranked := []model.Task{{ID: "t", Title: "late task", EstimatedHours: 2}}

	events := utcPlanner().BuildEvents(ranked, now)
	want := time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC)
	if !events[0].StartAt.Equal(want) {
		t.Errorf("start = %v, want next-day window start %v", events[0].StartAt, want)
	}
}

func TestBuildEventsNonUTCWindow(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	p := NewPlanner(loc, 9*60, 21*60)

	// 06:00 UTC in February is 06:00 in London; window opens 09:00 local.
	now := time.Date(2026, 2, 20, 6, 0, 0, 0, time.UTC)
	events := p.BuildEvents([]model.Task{{ID: "t", Title: "morning", EstimatedHours: 1}}, now)

	want := time.Date(2026, 2, 20, 9, 0, 0, 0, loc)
	if !events[0].StartAt.Equal(want) {
		t.Errorf("start = %v, want local window start %v", events[0].StartAt, want)
	}
	if events[0].StartAt.Location() != time.UTC {
		t.Errorf("persisted start not UTC: %v", events[0].StartAt.Location())
	}
}
