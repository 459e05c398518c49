package model

import "time"

// Activity is one tracked time interval [StartTime, EndTime) spent on an
// action class. A nil EndTime means the activity is currently running.
//
// Stored activities obey the timeline invariants: at most one running row,
// no overlap between closed rows, and no row spans a UTC day boundary.
// The timeline package repairs these invariants after every manual write.
type Activity struct {
	// ID is the unique identifier for this interval.
	ID string `json:"id" db:"id"`

	// ActionClassID references the action class this time was spent on.
	ActionClassID string `json:"action_class_id" db:"action_class_id"`

	// StartTime is the inclusive start of the interval. Always set.
	StartTime time.Time `json:"start_time" db:"start_time"`

	// EndTime is the exclusive end of the interval, nil while running.
	EndTime *time.Time `json:"end_time,omitempty" db:"end_time"`

	// Description is optional free-form text about the interval.
	Description string `json:"description" db:"description"`

	// DurationMS is derived: EndTime - StartTime in milliseconds,
	// nil while the activity is running.
	DurationMS *int64 `json:"duration_ms,omitempty" db:"duration_ms"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Running reports whether the activity has no end time yet.
func (a *Activity) Running() bool {
	return a.EndTime == nil
}

// Duration returns the interval length, or zero while running.
func (a *Activity) Duration() time.Duration {
	if a.EndTime == nil {
		return 0
	}
	return a.EndTime.Sub(a.StartTime)
}

// DurationMillis computes the derived duration_ms value for a closed
// interval ending at end.
func DurationMillis(start, end time.Time) int64 {
	return end.Sub(start).Milliseconds()
}
