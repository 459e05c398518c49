package recur

import (
	"context"
	"fmt"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/events"
	"github.com/sudo-sidd/neuropilot/internal/logger"
	"github.com/sudo-sidd/neuropilot/internal/model"
	"github.com/sudo-sidd/neuropilot/internal/notify"
)

// reminderHour is the UTC hour at which generated-task reminders fire on
// their due date.
const reminderHour = 9

// Store is the slice of the persistence layer the generator needs.
type Store interface {
	GetTemplates(ctx context.Context, activeOnly bool) ([]model.RecurringTemplate, error)
	HasGeneratedTask(ctx context.Context, templateID string, dueDate time.Time) (bool, error)
	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)
	SetTaskReminder(ctx context.Context, id string, reminderID *string) error
}

// Generator expands active recurring templates into task instances for a
// rolling future window.
type Generator struct {
	store     Store
	hub       *events.Hub
	reminders notify.Reminders
	now       func() time.Time
}

// NewGenerator creates a generator. hub and reminders may be nil.
func NewGenerator(s Store, hub *events.Hub, reminders notify.Reminders) *Generator {
	return &Generator{store: s, hub: hub, reminders: reminders, now: time.Now}
}

// SetNowFunc overrides the clock, for tests.
func (g *Generator) SetNowFunc(now func() time.Time) {
	g.now = now
}

// GenerateInstances creates one task per active template per matching date
// in [today, today + daysAhead], skipping dates that already have a
// generated task for that template. Returns the number of tasks created.
// A second call over the same window creates nothing: the existence check
// is the authority, not any side effect of prior runs.
func (g *Generator) GenerateInstances(ctx context.Context, daysAhead int) (int, error) {
	templates, err := g.store.GetTemplates(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("loading active templates: %w", err)
	}

	today := g.now().UTC()
	created := 0
	for _, tpl := range templates {
		for _, date := range DatesMatching(tpl, today, daysAhead) {
			exists, err := g.store.HasGeneratedTask(ctx, tpl.ID, date)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			due := date
			genDate := date
			task, err := g.store.CreateTask(ctx, model.Task{
				Name:                 tpl.Name,
				Description:          tpl.Description,
				Status:               model.TaskStatusTodo,
				Priority:             tpl.Priority,
				ActionClassID:        tpl.ActionClassID,
				TemplateID:           &tpl.ID,
				IsGenerated:          true,
				SourceGenerationDate: &genDate,
				DueDate:              &due,
			})
			if err != nil {
				return created, fmt.Errorf("generating task for template %s: %w", tpl.ID, err)
			}
			created++

			g.scheduleReminder(ctx, task, date)
		}
	}

	if created > 0 {
		logger.Info("generated recurring task instances", "count", created)
		if g.hub != nil {
			g.hub.Emit(events.DomainTasks)
		}
	}
	return created, nil
}

// scheduleReminder asks the notification collaborator for a reminder on the
// task's due date. Failures are logged and never abort the task write.
func (g *Generator) scheduleReminder(ctx context.Context, task *model.Task, due time.Time) {
	if g.reminders == nil {
		return
	}
	fireAt := due.Add(reminderHour * time.Hour)
	if !fireAt.After(g.now().UTC()) {
		return
	}

	reminderID, err := g.reminders.ScheduleReminder(ctx, task.ID, task.Name, "Due today", fireAt)
	if err != nil {
		logger.Warn("scheduling reminder failed", "task", task.ID, "error", err)
		return
	}
	if err := g.store.SetTaskReminder(ctx, task.ID, &reminderID); err != nil {
		logger.Warn("recording reminder id failed", "task", task.ID, "error", err)
	}
}
