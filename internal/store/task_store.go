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

const taskColumns = `id, name, description, status, completed, priority,
	action_class_id, start_date, start_time, due_date, due_time, sort_order,
	created_at, updated_at, template_id, is_generated, source_generation_date,
	reminder_notification_id`

// CreateTask inserts a new task. Generates a UUID if ID is empty. Creating
// a task directly in the in_progress column counts against the WIP limit.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	if strings.TrimSpace(t.Name) == "" {
		return nil, &apperr.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if t.Status == "" {
		t.Status = model.TaskStatusTodo
	}
	if !model.ValidStatus(t.Status) {
		return nil, &apperr.ValidationError{Field: "status", Reason: "unknown status " + t.Status}
	}
	if t.Priority < model.PriorityHigh || t.Priority > model.PriorityLater {
		t.Priority = model.PriorityMedium
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Completed = t.Status == model.TaskStatusDone

	if t.Status == model.TaskStatusInProgress {
		if err := s.checkInProgressLimit(ctx); err != nil {
			return nil, err
		}
	}

	// Default sort_order to max+1 within the status column.
	if t.SortOrder == 0 {
		var maxOrder int
		err := s.db.GetContext(ctx, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), -1) FROM tasks WHERE status = ?", t.Status)
		if err != nil {
			return nil, &apperr.StorageError{Op: "getting max sort_order", Err: err}
		}
		t.SortOrder = maxOrder + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, t.Status, boolToInt(t.Completed), t.Priority,
		t.ActionClassID, t.StartDate, t.StartTime, t.DueDate, t.DueTime, t.SortOrder,
		t.CreatedAt, t.UpdatedAt, t.TemplateID, boolToInt(t.IsGenerated),
		t.SourceGenerationDate, t.ReminderNotificationID,
	)
	if err != nil {
		return nil, &apperr.StorageError{Op: "creating task", Err: err}
	}
	return &t, nil
}

// UpdateTask updates an existing task by ID. Transitioning into in_progress
// is rejected with a CapacityError when the WIP limit is already reached.
// The completed flag follows the status.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Name) == "" {
		return &apperr.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !model.ValidStatus(t.Status) {
		return &apperr.ValidationError{Field: "status", Reason: "unknown status " + t.Status}
	}

	existing, err := s.GetTaskByID(ctx, t.ID)
	if err != nil {
		return err
	}
	if t.Status == model.TaskStatusInProgress && existing.Status != model.TaskStatusInProgress {
		if err := s.checkInProgressLimit(ctx); err != nil {
			return err
		}
	}

	t.UpdatedAt = time.Now().UTC()
	t.Completed = t.Status == model.TaskStatusDone

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			name = ?, description = ?, status = ?, completed = ?, priority = ?,
			action_class_id = ?, start_date = ?, start_time = ?, due_date = ?,
			due_time = ?, sort_order = ?, updated_at = ?,
			reminder_notification_id = ?
		WHERE id = ?`,
		t.Name, t.Description, t.Status, boolToInt(t.Completed), t.Priority,
		t.ActionClassID, t.StartDate, t.StartTime, t.DueDate,
		t.DueTime, t.SortOrder, t.UpdatedAt,
		t.ReminderNotificationID,
		t.ID,
	)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("updating task %s", t.ID), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", t.ID)
	}
	return nil
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("deleting task %s", id), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &t, nil
}

// GetTasks retrieves tasks matching the filter.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ReorderTask updates the sort_order for a specific task.
func (s *SQLiteStore) ReorderTask(ctx context.Context, id string, newSortOrder int) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?",
		newSortOrder, time.Now().UTC(), id,
	)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("reordering task %s", id), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// HasGeneratedTask reports whether a task generated from the given template
// already exists for the given due date. This existence check is the
// authority for generator idempotence.
func (s *SQLiteStore) HasGeneratedTask(
	ctx context.Context,
	templateID string,
	dueDate time.Time,
) (bool, error) {
	day := dueDate.UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM tasks WHERE template_id = ? AND due_date >= ? AND due_date < ?",
		templateID, dayStart, dayEnd,
	)
	if err != nil {
		return false, &apperr.StorageError{Op: "checking generated task", Err: err}
	}
	return count > 0, nil
}

// SetTaskReminder records (or clears) the reminder handle for a task.
func (s *SQLiteStore) SetTaskReminder(ctx context.Context, id string, reminderID *string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET reminder_notification_id = ?, updated_at = ? WHERE id = ?",
		reminderID, time.Now().UTC(), id,
	)
	if err != nil {
		return &apperr.StorageError{Op: fmt.Sprintf("setting reminder for task %s", id), Err: err}
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// checkInProgressLimit rejects a transition into in_progress when the WIP
// limit is already reached.
func (s *SQLiteStore) checkInProgressLimit(ctx context.Context) error {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM tasks WHERE status = ?", model.TaskStatusInProgress)
	if err != nil {
		return &apperr.StorageError{Op: "counting in-progress tasks", Err: err}
	}
	if count >= model.InProgressLimit {
		return &apperr.CapacityError{Resource: "in-progress tasks", Limit: model.InProgressLimit}
	}
	return nil
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.ActionClassID != nil {
		conditions = append(conditions, "action_class_id = ?")
		args = append(args, *filter.ActionClassID)
	}
	if filter.TemplateID != nil {
		conditions = append(conditions, "template_id = ?")
		args = append(args, *filter.TemplateID)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(name LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}
	if filter.DueDate != nil {
		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		switch *filter.DueDate {
		case "today":
			conditions = append(conditions, "due_date >= ? AND due_date < ?")
			args = append(args, today, today.AddDate(0, 0, 1))
		case "upcoming":
			conditions = append(conditions, "due_date >= ? AND due_date < ?")
			args = append(args, today, today.AddDate(0, 0, 7))
		case "overdue":
			conditions = append(conditions, "due_date < ? AND status != 'done'")
			args = append(args, today)
		}
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Sort. The default kanban order is sort_order with priority and id
	// as stable tie-breakers.
	sortBy := "sort_order"
	if filter.SortBy != "" {
		allowed := map[string]bool{
			"sort_order": true,
			"priority":   true,
			"due_date":   true,
			"created_at": true,
			"updated_at": true,
			"name":       true,
		}
		if allowed[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)
	if sortBy == "sort_order" {
		query += ", priority DESC, id ASC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

// scanTask scans a task row from anything with a Scan method.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		t            model.Task
		completedInt int
		generatedInt int
		startDate    *time.Time
		dueDate      *time.Time
		sourceDate   *time.Time
	)

	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Status, &completedInt, &t.Priority,
		&t.ActionClassID, &startDate, &t.StartTime, &dueDate, &t.DueTime, &t.SortOrder,
		&t.CreatedAt, &t.UpdatedAt, &t.TemplateID, &generatedInt, &sourceDate,
		&t.ReminderNotificationID,
	)
	if err != nil {
		return model.Task{}, err
	}

	t.Completed = completedInt != 0
	t.IsGenerated = generatedInt != 0
	t.StartDate = startDate
	t.DueDate = dueDate
	t.SourceGenerationDate = sourceDate
	return t, nil
}
