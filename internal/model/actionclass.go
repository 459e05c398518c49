package model

import "time"

// ActionClass is a user-defined category for activities and tasks,
// such as "Focus" or "Exercise". Names are unique.
type ActionClass struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	Emoji     *string   `json:"emoji,omitempty" db:"emoji"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
