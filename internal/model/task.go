package model

import "time"

// Task status constants for the kanban columns.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Priority constants (lower number = higher priority).
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
	PriorityLater  = 4
)

// InProgressLimit caps how many tasks may be in progress at once.
const InProgressLimit = 2

// Task is a kanban work item, created manually or generated from a
// recurring template.
type Task struct {
	// ID is the internal unique identifier for this task.
	ID string `json:"id" db:"id"`

	// Name is the human-readable summary of the task.
	Name string `json:"name" db:"name"`

	// Description is the full body text.
	Description string `json:"description" db:"description"`

	// Status is the kanban column (use TaskStatus* constants).
	Status string `json:"status" db:"status"`

	// Completed mirrors Status == done and is kept consistent on writes.
	Completed bool `json:"completed" db:"completed"`

	// Priority is the urgency level (use Priority* constants).
	Priority int `json:"priority" db:"priority"`

	// ActionClassID optionally links the task to an action class.
	ActionClassID *string `json:"action_class_id,omitempty" db:"action_class_id"`

	// TemplateID is set iff the task was generated from a recurring template.
	TemplateID *string `json:"template_id,omitempty" db:"template_id"`

	// IsGenerated marks tasks produced by the recurrence generator.
	IsGenerated bool `json:"is_generated" db:"is_generated"`

	// SourceGenerationDate records which pattern date produced this task.
	SourceGenerationDate *time.Time `json:"source_generation_date,omitempty" db:"source_generation_date"`

	StartDate *time.Time `json:"start_date,omitempty" db:"start_date"`
	StartTime *string    `json:"start_time,omitempty" db:"start_time"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	DueTime   *string    `json:"due_time,omitempty" db:"due_time"`

	// SortOrder positions the task within its status column.
	// Ties break by priority descending, then id ascending.
	SortOrder int `json:"sort_order" db:"sort_order"`

	// ReminderNotificationID is the collaborator handle for a scheduled
	// reminder, if one exists.
	ReminderNotificationID *string `json:"reminder_notification_id,omitempty" db:"reminder_notification_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}
