// Package notify defines the reminder capability consumed by the task and
// recurrence paths. Scheduling is best-effort: callers tolerate failure and
// never abort a task write because a reminder could not be placed.
package notify

import (
	"context"
	"time"
)

// Reminders is the consumed notification capability.
type Reminders interface {
	// ScheduleReminder asks the collaborator to fire a reminder for the
	// task at fireAt and returns an opaque handle for cancellation.
	ScheduleReminder(ctx context.Context, taskID, title, body string, fireAt time.Time) (string, error)

	// CancelReminder revokes a previously scheduled reminder by handle.
	CancelReminder(ctx context.Context, reminderID string) error
}
