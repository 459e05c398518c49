package store

import (
	"context"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	Status        *string // "todo", "in_progress", "done", or nil (all)
	Priority      *int    // 1-4 or nil (all)
	ActionClassID *string
	TemplateID    *string
	Query         *string // search name + description
	DueDate       *string // "today", "upcoming" (next 7 days), "overdue", or nil
	SortBy        string  // "sort_order", "priority", "due_date", "created_at", "updated_at", "name"
	SortDesc      bool
	Limit         int
	Offset        int
}

// ClassDuration is one row of an activity summary: total closed time
// recorded against an action class.
type ClassDuration struct {
	ActionClassID string
	Name          string
	TotalMS       int64
}

// Store defines the persistence interface for action classes, activities,
// tasks, recurring templates, daily forms, and preferences.
type Store interface {
	// === Action classes ===

	CreateActionClass(ctx context.Context, ac model.ActionClass) (*model.ActionClass, error)
	UpdateActionClass(ctx context.Context, ac model.ActionClass) error
	DeleteActionClass(ctx context.Context, id string) error
	GetActionClassByID(ctx context.Context, id string) (*model.ActionClass, error)
	GetActionClasses(ctx context.Context) ([]model.ActionClass, error)

	// === Activities ===

	CreateActivity(ctx context.Context, a model.Activity) (*model.Activity, error)
	UpdateActivity(ctx context.Context, a model.Activity) error
	DeleteActivity(ctx context.Context, id string) error
	GetActivityByID(ctx context.Context, id string) (*model.Activity, error)
	GetActivities(ctx context.Context, from, to time.Time) ([]model.Activity, error)
	GetCurrentActivity(ctx context.Context) (*model.Activity, error)
	StartActivity(ctx context.Context, actionClassID, description string, at time.Time) (*model.Activity, error)
	StopCurrentActivity(ctx context.Context, at time.Time) (*model.Activity, error)
	GetActivitySummary(ctx context.Context, from, to time.Time) ([]ClassDuration, error)

	// Timeline repair primitives, consumed by the normalizer.
	GetPredecessor(ctx context.Context, start time.Time, excludeID string) (*model.Activity, error)
	GetSuccessor(ctx context.Context, start time.Time, excludeID string) (*model.Activity, error)
	GetEngulfed(ctx context.Context, start, end time.Time, excludeID string) ([]model.Activity, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
	DeleteTask(ctx context.Context, id string) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	ReorderTask(ctx context.Context, id string, newSortOrder int) error
	HasGeneratedTask(ctx context.Context, templateID string, dueDate time.Time) (bool, error)
	SetTaskReminder(ctx context.Context, id string, reminderID *string) error

	// === Recurring templates ===

	CreateTemplate(ctx context.Context, t model.RecurringTemplate) (*model.RecurringTemplate, error)
	UpdateTemplate(ctx context.Context, t model.RecurringTemplate) error
	DeactivateTemplate(ctx context.Context, id string) error
	GetTemplateByID(ctx context.Context, id string) (*model.RecurringTemplate, error)
	GetTemplates(ctx context.Context, activeOnly bool) ([]model.RecurringTemplate, error)

	// === Daily forms ===

	UpsertDailyForm(ctx context.Context, f model.DailyForm) error
	GetDailyForm(ctx context.Context, date time.Time) (*model.DailyForm, error)
	GetDailyForms(ctx context.Context, from, to time.Time) ([]model.DailyForm, error)

	// === Preferences ===

	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
	DeletePreference(ctx context.Context, key string) error
	GetPreferences(ctx context.Context) ([]model.Preference, error)
}
