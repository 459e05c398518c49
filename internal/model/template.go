package model

import (
	"time"

	"github.com/sudo-sidd/neuropilot/internal/apperr"
)

// Recurrence pattern type constants.
const (
	PatternDaily         = "daily"
	PatternEveryOtherDay = "every_other_day"
	PatternWeekdays      = "weekdays"
)

// RecurringTemplate is a rule that generates repeated task instances on a
// schedule. Deactivation stops future generation but never retracts tasks
// that were already generated.
type RecurringTemplate struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`

	// PatternType selects the recurrence rule (use Pattern* constants).
	PatternType string `json:"pattern_type" db:"pattern_type"`

	// PatternDays holds UTC weekday numbers 0-6; required iff the
	// pattern type is weekdays.
	PatternDays []int `json:"pattern_days,omitempty" db:"-"`

	// EveryOtherSeed anchors the every-other-day cadence; required iff
	// the pattern type is every_other_day.
	EveryOtherSeed *time.Time `json:"every_other_seed,omitempty" db:"every_other_seed"`

	Active        bool      `json:"active" db:"active"`
	Priority      int       `json:"priority" db:"priority"`
	ActionClassID *string   `json:"action_class_id,omitempty" db:"action_class_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the pattern fields for consistency.
func (t *RecurringTemplate) Validate() error {
	if t.Name == "" {
		return &apperr.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	switch t.PatternType {
	case PatternDaily:
	case PatternWeekdays:
		if len(t.PatternDays) == 0 {
			return &apperr.ValidationError{Field: "pattern_days", Reason: "required for weekdays pattern"}
		}
		for _, d := range t.PatternDays {
			if d < 0 || d > 6 {
				return &apperr.ValidationError{Field: "pattern_days", Reason: "weekday numbers must be 0-6"}
			}
		}
	case PatternEveryOtherDay:
		if t.EveryOtherSeed == nil {
			return &apperr.ValidationError{Field: "every_other_seed", Reason: "required for every_other_day pattern"}
		}
	default:
		return &apperr.ValidationError{Field: "pattern_type", Reason: "unknown pattern type " + t.PatternType}
	}
	return nil
}
