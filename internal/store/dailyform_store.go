package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/apperr"
	"github.com/sudo-sidd/neuropilot/internal/model"
)

// UpsertDailyForm inserts or updates the journal entry for the form's
// calendar date. One row per date; repeated writes replace the content.
func (s *SQLiteStore) UpsertDailyForm(ctx context.Context, f model.DailyForm) error {
	if f.FormDate.IsZero() {
		return &apperr.ValidationError{Field: "form_date", Reason: "must be set"}
	}
	now := time.Now().UTC()

	extra := f.AdditionalFields
	if extra == nil {
		extra = map[string]string{}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("marshaling additional_fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_forms (form_date, mood, thoughts, highlights, gratitude, additional_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(form_date) DO UPDATE SET
			mood = excluded.mood,
			thoughts = excluded.thoughts,
			highlights = excluded.highlights,
			gratitude = excluded.gratitude,
			additional_fields = excluded.additional_fields,
			updated_at = excluded.updated_at`,
		f.FormDate.UTC().Format(DateFormat), f.Mood, f.Thoughts, f.Highlights,
		f.Gratitude, string(extraJSON), now, now,
	)
	if err != nil {
		return &apperr.StorageError{Op: "upserting daily form", Err: err}
	}
	return nil
}

// GetDailyForm retrieves the journal entry for a calendar date, or nil when
// none exists.
func (s *SQLiteStore) GetDailyForm(ctx context.Context, date time.Time) (*model.DailyForm, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT form_date, mood, thoughts, highlights, gratitude, additional_fields, created_at, updated_at
		FROM daily_forms WHERE form_date = ?`,
		date.UTC().Format(DateFormat),
	)
	f, err := scanDailyForm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting daily form: %w", err)
	}
	return &f, nil
}

// GetDailyForms retrieves journal entries for dates in [from, to],
// ordered by date. Used by the weekly report.
func (s *SQLiteStore) GetDailyForms(
	ctx context.Context,
	from, to time.Time,
) ([]model.DailyForm, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT form_date, mood, thoughts, highlights, gratitude, additional_fields, created_at, updated_at
		FROM daily_forms
		WHERE form_date >= ? AND form_date <= ?
		ORDER BY form_date`,
		from.UTC().Format(DateFormat), to.UTC().Format(DateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("querying daily forms: %w", err)
	}
	defer rows.Close()

	var forms []model.DailyForm
	for rows.Next() {
		f, err := scanDailyForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning daily form row: %w", err)
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// scanDailyForm scans a daily form row.
func scanDailyForm(row interface{ Scan(dest ...interface{}) error }) (model.DailyForm, error) {
	var (
		f         model.DailyForm
		formDate  string
		extraJSON string
	)

	err := row.Scan(
		&formDate, &f.Mood, &f.Thoughts, &f.Highlights, &f.Gratitude,
		&extraJSON, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return model.DailyForm{}, err
	}

	date, err := time.Parse(DateFormat, formDate)
	if err != nil {
		return model.DailyForm{}, fmt.Errorf("parsing form_date %q: %w", formDate, err)
	}
	f.FormDate = date

	if extraJSON != "" {
		if err := json.Unmarshal([]byte(extraJSON), &f.AdditionalFields); err != nil {
			return model.DailyForm{}, fmt.Errorf("unmarshaling additional_fields: %w", err)
		}
	}
	return f, nil
}
