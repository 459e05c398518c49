package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-sidd/neuropilot/internal/apperr"
	"github.com/sudo-sidd/neuropilot/internal/model"
)

const templateColumns = `id, name, description, pattern_type, pattern_days,
	every_other_seed, active, priority, action_class_id, created_at, updated_at`

// CreateTemplate inserts a new recurring template after validating its
// pattern fields.
func (s *SQLiteStore) CreateTemplate(
	ctx context.Context,
	t model.RecurringTemplate,
) (*model.RecurringTemplate, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Priority < model.PriorityHigh || t.Priority > model.PriorityLater {
		t.Priority = model.PriorityMedium
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	patternDays, err := json.Marshal(t.PatternDays)
	if err != nil {
		return nil, fmt.Errorf("marshaling pattern_days: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recurring_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, t.PatternType, string(patternDays),
		t.EveryOtherSeed, boolToInt(t.Active), t.Priority, t.ActionClassID,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, &apperr.StorageError{Op: "creating template", Err: err}
	}
	return &t, nil
}

// UpdateTemplate replaces the pattern fields of an existing template.
func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t model.RecurringTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()

	patternDays, err := json.Marshal(t.PatternDays)
	if err != nil {
		return fmt.Errorf("marshaling pattern_days: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE recurring_templates SET
			name = ?, description = ?, pattern_type = ?, pattern_days = ?,
			every_other_seed = ?, active = ?, priority = ?, action_class_id = ?,
			updated_at = ?
		WHERE id = ?`,
		t.Name, t.Description, t.PatternType, string(patternDays),
		t.EveryOtherSeed, boolToInt(t.Active), t.Priority, t.ActionClassID,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("updating template %s", t.ID), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("template %s not found", t.ID)
	}
	return nil
}

// DeactivateTemplate soft-deletes a template: generation stops, but tasks
// already generated from it are never retracted.
func (s *SQLiteStore) DeactivateTemplate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE recurring_templates SET active = 0, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("deactivating template %s", id), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("template %s not found", id)
	}
	return nil
}

// GetTemplateByID retrieves a single template by ID.
func (s *SQLiteStore) GetTemplateByID(
	ctx context.Context,
	id string,
) (*model.RecurringTemplate, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+templateColumns+" FROM recurring_templates WHERE id = ?", id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("getting template %s: %w", id, err)
	}
	return &t, nil
}

// GetTemplates retrieves templates, optionally only active ones, ordered
// by name.
func (s *SQLiteStore) GetTemplates(
	ctx context.Context,
	activeOnly bool,
) ([]model.RecurringTemplate, error) {
	query := "SELECT " + templateColumns + " FROM recurring_templates"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var templates []model.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// scanTemplate scans a recurring template row.
func scanTemplate(row interface{ Scan(dest ...interface{}) error }) (model.RecurringTemplate, error) {
	var (
		t           model.RecurringTemplate
		patternDays string
		seed        *time.Time
		activeInt   int
	)

	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.PatternType, &patternDays,
		&seed, &activeInt, &t.Priority, &t.ActionClassID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.RecurringTemplate{}, err
	}

	t.Active = activeInt != 0
	if seed != nil {
		s := seed.UTC()
		t.EveryOtherSeed = &s
	}
	if patternDays != "" {
		if err := json.Unmarshal([]byte(patternDays), &t.PatternDays); err != nil {
			return model.RecurringTemplate{}, fmt.Errorf("unmarshaling pattern_days: %w", err)
		}
	}
	return t, nil
}
