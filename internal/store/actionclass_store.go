package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-sidd/neuropilot/internal/apperr"
	"github.com/sudo-sidd/neuropilot/internal/model"
)

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateActionClass inserts a new action class. Generates a UUID if ID is
// empty. Duplicate names are rejected with a UniquenessConflict.
func (s *SQLiteStore) CreateActionClass(
	ctx context.Context,
	ac model.ActionClass,
) (*model.ActionClass, error) {
	if strings.TrimSpace(ac.Name) == "" {
		return nil, &apperr.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if ac.ID == "" {
		ac.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ac.CreatedAt = now
	ac.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_classes (id, name, color, emoji, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ac.ID, ac.Name, ac.Color, ac.Emoji, ac.CreatedAt, ac.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &apperr.UniquenessConflict{Entity: "action class", Field: "name", Value: ac.Name}
		}
		return nil, &apperr.StorageError{Op: "creating action class", Err: err}
	}
	return &ac, nil
}

// UpdateActionClass updates an existing action class in place.
func (s *SQLiteStore) UpdateActionClass(ctx context.Context, ac model.ActionClass) error {
	if strings.TrimSpace(ac.Name) == "" {
		return &apperr.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	ac.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE action_classes SET name = ?, color = ?, emoji = ?, updated_at = ?
		WHERE id = ?`,
		ac.Name, ac.Color, ac.Emoji, ac.UpdatedAt, ac.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperr.UniquenessConflict{Entity: "action class", Field: "name", Value: ac.Name}
		}
		return &apperr.StorageError{Op: fmt.Sprintf("updating action class %s", ac.ID), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("action class %s not found", ac.ID)
	}
	return nil
}

// DeleteActionClass removes an action class. The delete is blocked with a
// ReferentialConflict while any activity still references it.
func (s *SQLiteStore) DeleteActionClass(ctx context.Context, id string) error {
	var refs int
	err := s.db.GetContext(ctx, &refs,
		"SELECT COUNT(*) FROM activities WHERE action_class_id = ?", id)
	if err != nil {
		return &apperr.StorageError{Op: "checking action class references", Err: err}
	}
	if refs > 0 {
		return &apperr.ReferentialConflict{Entity: "action class", ID: id, Referencer: "activities"}
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM action_classes WHERE id = ?", id)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("deleting action class %s", id), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("action class %s not found", id)
	}
	return nil
}

// GetActionClassByID retrieves a single action class by ID.
func (s *SQLiteStore) GetActionClassByID(
	ctx context.Context,
	id string,
) (*model.ActionClass, error) {
	var ac model.ActionClass
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, name, color, emoji, created_at, updated_at
		FROM action_classes WHERE id = ?`, id).Scan(
		&ac.ID, &ac.Name, &ac.Color, &ac.Emoji, &ac.CreatedAt, &ac.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("getting action class %s: %w", id, err)
	}
	return &ac, nil
}

// GetActionClasses retrieves all action classes ordered by name.
func (s *SQLiteStore) GetActionClasses(ctx context.Context) ([]model.ActionClass, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, name, color, emoji, created_at, updated_at
		FROM action_classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying action classes: %w", err)
	}
	defer rows.Close()

	var classes []model.ActionClass
	for rows.Next() {
		var ac model.ActionClass
		err := rows.Scan(&ac.ID, &ac.Name, &ac.Color, &ac.Emoji, &ac.CreatedAt, &ac.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning action class row: %w", err)
		}
		classes = append(classes, ac)
	}
	return classes, rows.Err()
}
