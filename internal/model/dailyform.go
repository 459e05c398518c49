package model

import "time"

// DailyForm is the journal entry for one calendar date. Writes use upsert
// semantics keyed on FormDate.
type DailyForm struct {
	FormDate   time.Time `json:"form_date" db:"form_date"`
	Mood       *int      `json:"mood,omitempty" db:"mood"`
	Thoughts   string    `json:"thoughts" db:"thoughts"`
	Highlights string    `json:"highlights" db:"highlights"`
	Gratitude  string    `json:"gratitude" db:"gratitude"`

	// AdditionalFields is an open map for fields added after the fact,
	// stored as JSON.
	AdditionalFields map[string]string `json:"additional_fields,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
