package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-sidd/neuropilot/internal/apperr"
	"github.com/sudo-sidd/neuropilot/internal/model"
)

const activityColumns = "id, action_class_id, start_time, end_time, description, duration_ms, created_at, updated_at"

// CreateActivity inserts a new activity interval. Generates a UUID if ID is
// empty and derives duration_ms when the interval is closed. Callers that
// create or edit closed intervals must run the timeline normalizer on the
// returned row before treating the write as complete.
func (s *SQLiteStore) CreateActivity(
	ctx context.Context,
	a model.Activity,
) (*model.Activity, error) {
	if a.ActionClassID == "" {
		return nil, &apperr.ValidationError{Field: "action_class_id", Reason: "must not be empty"}
	}
	if a.StartTime.IsZero() {
		return nil, &apperr.ValidationError{Field: "start_time", Reason: "must be set"}
	}
	if a.EndTime != nil && !a.EndTime.After(a.StartTime) {
		return nil, &apperr.ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.StartTime = a.StartTime.UTC()
	if a.EndTime != nil {
		end := a.EndTime.UTC()
		a.EndTime = &end
		d := model.DurationMillis(a.StartTime, end)
		a.DurationMS = &d
	} else {
		a.DurationMS = nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ActionClassID, a.StartTime, a.EndTime, a.Description,
		a.DurationMS, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, &apperr.StorageError{Op: "creating activity", Err: err}
	}
	return &a, nil
}

// UpdateActivity updates an existing activity. Duration is rederived from
// the new times.
func (s *SQLiteStore) UpdateActivity(ctx context.Context, a model.Activity) error {
	if a.EndTime != nil && !a.EndTime.After(a.StartTime) {
		return &apperr.ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	a.UpdatedAt = time.Now().UTC()
	a.StartTime = a.StartTime.UTC()
	if a.EndTime != nil {
		end := a.EndTime.UTC()
		a.EndTime = &end
		d := model.DurationMillis(a.StartTime, end)
		a.DurationMS = &d
	} else {
		a.DurationMS = nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE activities SET
			action_class_id = ?, start_time = ?, end_time = ?,
			description = ?, duration_ms = ?, updated_at = ?
		WHERE id = ?`,
		a.ActionClassID, a.StartTime, a.EndTime,
		a.Description, a.DurationMS, a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("updating activity %s", a.ID), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("activity %s not found", a.ID)
	}
	return nil
}

// DeleteActivity removes an activity. The resulting gap in the timeline is
// accepted as-is; no normalization runs on delete.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("deleting activity %s", id), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("activity %s not found", id)
	}
	return nil
}

// GetActivityByID retrieves a single activity by ID.
func (s *SQLiteStore) GetActivityByID(
	ctx context.Context,
	id string,
) (*model.Activity, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if err != nil {
		return nil, fmt.Errorf("getting activity %s: %w", id, err)
	}
	return &a, nil
}

// GetActivities retrieves activities with start_time in [from, to),
// ordered by start time.
func (s *SQLiteStore) GetActivities(
	ctx context.Context,
	from, to time.Time,
) ([]model.Activity, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+activityColumns+` FROM activities
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()
	return collectActivities(rows)
}

// GetCurrentActivity returns the running activity, or nil when none is
// open. The running row is always resolved by live query, never cached.
func (s *SQLiteStore) GetCurrentActivity(ctx context.Context) (*model.Activity, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE end_time IS NULL ORDER BY start_time DESC LIMIT 1")
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting current activity: %w", err)
	}
	return &a, nil
}

// StartActivity opens a new running interval at the given time. Any
// previously open interval is closed at the same instant first, so at most
// one row ever has a null end_time.
func (s *SQLiteStore) StartActivity(
	ctx context.Context,
	actionClassID, description string,
	at time.Time,
) (*model.Activity, error) {
	if actionClassID == "" {
		return nil, &apperr.ValidationError{Field: "action_class_id", Reason: "must not be empty"}
	}
	at = at.UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &apperr.StorageError{Op: "beginning start-activity transaction", Err: err}
	}
	defer tx.Rollback()

	// Auto-close the open interval, if any.
	row := tx.QueryRowxContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE end_time IS NULL ORDER BY start_time DESC LIMIT 1")
	open, err := scanActivity(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.StorageError{Op: "finding open activity", Err: err}
	}
	if err == nil {
		if !at.After(open.StartTime) {
			return nil, &apperr.ValidationError{
				Field:  "start_time",
				Reason: "must be after the open activity's start",
			}
		}
		d := model.DurationMillis(open.StartTime, at)
		_, err = tx.ExecContext(ctx, `
			UPDATE activities SET end_time = ?, duration_ms = ?, updated_at = ?
			WHERE id = ?`,
			at, d, time.Now().UTC(), open.ID,
		)
		if err != nil {
			return nil, &apperr.StorageError{Op: "closing open activity", Err: err}
		}
	}

	a := model.Activity{
		ID:            uuid.New().String(),
		ActionClassID: actionClassID,
		StartTime:     at,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, NULL, ?, NULL, ?, ?)`,
		a.ID, a.ActionClassID, a.StartTime, a.Description, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, &apperr.StorageError{Op: "starting activity", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &apperr.StorageError{Op: "committing start-activity", Err: err}
	}
	return &a, nil
}

// StopCurrentActivity closes the running interval at the given time and
// returns the closed row. Returns nil when nothing is running.
func (s *SQLiteStore) StopCurrentActivity(
	ctx context.Context,
	at time.Time,
) (*model.Activity, error) {
	current, err := s.GetCurrentActivity(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	at = at.UTC()
	if !at.After(current.StartTime) {
		return nil, &apperr.ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	current.EndTime = &at
	d := model.DurationMillis(current.StartTime, at)
	current.DurationMS = &d

	if err := s.UpdateActivity(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// GetActivitySummary aggregates closed activity time per action class for
// rows starting in [from, to), ordered by total descending.
func (s *SQLiteStore) GetActivitySummary(
	ctx context.Context,
	from, to time.Time,
) ([]ClassDuration, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT a.action_class_id, ac.name, SUM(a.duration_ms) AS total_ms
		FROM activities a
		JOIN action_classes ac ON ac.id = a.action_class_id
		WHERE a.start_time >= ? AND a.start_time < ? AND a.end_time IS NOT NULL
		GROUP BY a.action_class_id, ac.name
		ORDER BY total_ms DESC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity summary: %w", err)
	}
	defer rows.Close()

	var summary []ClassDuration
	for rows.Next() {
		var cd ClassDuration
		if err := rows.Scan(&cd.ActionClassID, &cd.Name, &cd.TotalMS); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		summary = append(summary, cd)
	}
	return summary, rows.Err()
}

// GetPredecessor returns the latest activity whose start_time is strictly
// before start, or nil when none exists.
func (s *SQLiteStore) GetPredecessor(
	ctx context.Context,
	start time.Time,
	excludeID string,
) (*model.Activity, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+activityColumns+` FROM activities
		WHERE start_time < ? AND id != ?
		ORDER BY start_time DESC LIMIT 1`,
		start.UTC(), excludeID,
	)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting predecessor: %w", err)
	}
	return &a, nil
}

// GetSuccessor returns the earliest activity whose start_time is strictly
// after start, or nil when none exists.
func (s *SQLiteStore) GetSuccessor(
	ctx context.Context,
	start time.Time,
	excludeID string,
) (*model.Activity, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+activityColumns+` FROM activities
		WHERE start_time > ? AND id != ?
		ORDER BY start_time ASC LIMIT 1`,
		start.UTC(), excludeID,
	)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting successor: %w", err)
	}
	return &a, nil
}

// GetEngulfed returns closed activities fully contained within [start, end),
// excluding the given row.
func (s *SQLiteStore) GetEngulfed(
	ctx context.Context,
	start, end time.Time,
	excludeID string,
) ([]model.Activity, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+activityColumns+` FROM activities
		WHERE id != ? AND end_time IS NOT NULL
		AND start_time >= ? AND end_time <= ?
		ORDER BY start_time`,
		excludeID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying engulfed activities: %w", err)
	}
	defer rows.Close()
	return collectActivities(rows)
}

// scanActivity scans an activity row from anything with a Scan method.
func scanActivity(row interface{ Scan(dest ...interface{}) error }) (model.Activity, error) {
	var (
		a          model.Activity
		endTime    *time.Time
		durationMS *int64
	)

	err := row.Scan(
		&a.ID, &a.ActionClassID, &a.StartTime, &endTime,
		&a.Description, &durationMS, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Activity{}, err
	}

	a.StartTime = a.StartTime.UTC()
	if endTime != nil {
		end := endTime.UTC()
		a.EndTime = &end
	}
	a.DurationMS = durationMS
	return a, nil
}

// collectActivities drains a result set into a slice.
func collectActivities(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]model.Activity, error) {
	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
