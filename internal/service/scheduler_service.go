package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"beacon-scheduler/internal/model"
)

// ErrTaskNotFound is returned when a patch names an unknown task id.
var ErrTaskNotFound = errors.New("task not found")

// ErrInvalidInput is returned when a task mutation fails validation.
var ErrInvalidInput = errors.New("invalid input")

// taskListLimit bounds how many tasks a scheduling pass loads.
const taskListLimit = 1000

// TaskStore is the durable task mapping consumed by the scheduler.
type TaskStore interface {
	List(ctx context.Context, limit int) ([]model.Task, error)
	Upsert(ctx context.Context, tasks []model.Task) (int, error)
}

// EventStore is the durable event mapping consumed by the scheduler.
type EventStore interface {
	List(ctx context.Context, start, end *time.Time, limit int) ([]model.CalendarEvent, error)
	Replace(ctx context.Context, events []model.CalendarEvent) (int, error)
}

// TaskInput carries the fields required to create a task.
type TaskInput struct {
	Title          string
	Module         string
	DueAt          *time.Time
	WeightPercent  int
	EstimatedHours int
	Notes          string
}

// TaskPatch updates individual task fields; nil fields are left untouched.
// ClearDueAt removes an existing deadline, since a nil DueAt alone means
// "don't touch".
type TaskPatch struct {
	Title          *string
	Module         *string
	DueAt          *time.Time
	ClearDueAt     bool
	WeightPercent  *int
	EstimatedHours *int
	Notes          *string
	Completed      *bool
}

// SchedulerService orchestrates ranking and slot planning. Every task
// mutation triggers a full synchronous reschedule that replaces the entire
// event set.
type SchedulerService struct {
	tasks   TaskStore
	events  EventStore
	ranker  *Ranker
	planner *Planner
	log     zerolog.Logger

	now func() time.Time

	// Serializes reschedule passes: the event store must only ever reflect
	// one complete pass, and two interleaved replace writes would corrupt it.
	mu sync.Mutex
}

func NewSchedulerService(tasks TaskStore, events EventStore, ranker *Ranker, planner *Planner, log zerolog.Logger) *SchedulerService {
	return &SchedulerService{
		tasks:   tasks,
		events:  events,
		ranker:  ranker,
		planner: planner,
		log:     log,
		now:     time.Now,
	}
}

// AddTask validates and persists a new task, then recomputes the whole
// schedule and returns the created task plus the fresh event list.
func (s *SchedulerService) AddTask(ctx context.Context, input TaskInput) (model.Task, []model.CalendarEvent, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Task{}, nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	module := strings.TrimSpace(input.Module)
	if module == "" {
		module = "General"
	}

	now := s.now()
	task := model.Task{
		ID:             newTaskID(title, now),
		Title:          title,
		Module:         module,
		DueAt:          input.DueAt,
		WeightPercent:  clampInt(input.WeightPercent, 0, 100),
		EstimatedHours: clampInt(input.EstimatedHours, 0, 100),
		PriorityBand:   model.BandLow,
		Notes:          input.Notes,
	}

	if _, err := s.tasks.Upsert(ctx, []model.Task{task}); err != nil {
		return model.Task{}, nil, err
	}

	s.log.Info().Str("task_id", task.ID).Str("module", task.Module).Msg("task created")

	events, err := s.Reschedule(ctx)
	if err != nil {
		return model.Task{}, nil, err
	}
	return task, events, nil
}

// PatchTask applies the provided fields to an existing task and recomputes
// the schedule. Unknown ids report ErrTaskNotFound.
func (s *SchedulerService) PatchTask(ctx context.Context, taskID string, patch TaskPatch) (model.Task, []model.CalendarEvent, error) {
	tasks, err := s.tasks.List(ctx, taskListLimit)
	if err != nil {
		return model.Task{}, nil, err
	}

	var target *model.Task
	for i := range tasks {
		if tasks[i].ID == taskID {
			target = &tasks[i]
			break
		}
	}
	if target == nil {
		return model.Task{}, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	if patch.Title != nil {
		target.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Module != nil {
		target.Module = strings.TrimSpace(*patch.Module)
	}
	if patch.DueAt != nil {
		target.DueAt = patch.DueAt
	} else if patch.ClearDueAt {
		target.DueAt = nil
	}
	if patch.WeightPercent != nil {
		target.WeightPercent = clampInt(*patch.WeightPercent, 0, 100)
	}
	if patch.EstimatedHours != nil {
		target.EstimatedHours = clampInt(*patch.EstimatedHours, 0, 100)
	}
	if patch.Notes != nil {
		target.Notes = *patch.Notes
	}
	if patch.Completed != nil {
		target.Completed = *patch.Completed
	}

	if _, err := s.tasks.Upsert(ctx, []model.Task{*target}); err != nil {
		return model.Task{}, nil, err
	}

	s.log.Info().Str("task_id", target.ID).Bool("completed", target.Completed).Msg("task patched")

	events, err := s.Reschedule(ctx)
	if err != nil {
		return model.Task{}, nil, err
	}
	return *target, events, nil
}

// Reschedule recomputes the whole schedule from the current task set and
// replaces the event store contents with the result. At most one pass runs
// at a time.
func (s *SchedulerService) Reschedule(ctx context.Context) ([]model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.tasks.List(ctx, taskListLimit)
	if err != nil {
		return nil, err
	}

	active := filterActive(tasks)
	ranked := s.ranker.Rank(ctx, active)

	// Persist the scores actually used so the next pass ranks identically
	// even if the oracle stays down.
	if len(ranked) > 0 {
		if _, err := s.tasks.Upsert(ctx, ranked); err != nil {
			return nil, err
		}
	}

	events := s.planner.BuildEvents(ranked, s.now())
	if _, err := s.events.Replace(ctx, events); err != nil {
		return nil, err
	}

	s.log.Info().Int("active_tasks", len(ranked)).Int("events", len(events)).Msg("schedule recomputed")
	return events, nil
}

// ListEvents is a read-only passthrough to the event store.
func (s *SchedulerService) ListEvents(ctx context.Context, start, end *time.Time) ([]model.CalendarEvent, error) {
	return s.events.List(ctx, start, end, 0)
}

// filterActive drops completed tasks and defends against bad rows: blank ids
// are excluded, duplicate ids keep the first occurrence.
func filterActive(tasks []model.Task) []model.Task {
	seen := make(map[string]struct{}, len(tasks))
	active := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		id := strings.TrimSpace(task.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if task.Completed {
			continue
		}
		task.ID = id
		active = append(active, task)
	}
	return active
}

// newTaskID derives a stable id from the title and creation instant.
func newTaskID(title string, now time.Time) string {
	sum := sha256.Sum256([]byte(title + "|" + now.UTC().Format(time.RFC3339Nano)))
	return "task-" + hex.EncodeToString(sum[:])[:12]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
