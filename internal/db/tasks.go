package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tgienger/tally/internal/models"
)

// TaskFilter narrows ListTasks
type TaskFilter struct {
	ProjectID *string
	Search    string        // matched against title and description
	Tag       string        // only tasks carrying this tag
	Status    models.Status // only tasks in this status
}

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.priority, t.due_date, t.created_at, t.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t         models.Task
		projectID sql.NullString
		due       sql.NullString
	)
	err := row.Scan(&t.ID, &projectID, &t.Title, &t.Description, &t.Status, &t.Priority, &due, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if projectID.Valid {
		t.ProjectID = &projectID.String
	}
	t.DueDate = scanDate(due)
	return t, nil
}

// InsertTask stores a new task row and its tags
func (s Store) InsertTask(ctx context.Context, t *models.Task) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority, dateArg(t.DueDate), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	for _, tag := range t.Tags {
		if err := s.AddTagToTask(ctx, t.ID, tag); err != nil {
			return err
		}
	}
	return nil
}

// TaskExists reports whether a task row exists
func (s Store) TaskExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

// GetTask loads the full aggregate: task row, tags, subtasks and collaborators
func (s Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, &t, true); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns tasks matching filter, ordered by priority (desc) then created_at (asc).
// Subtasks and tags are loaded so callers can derive roll-ups.
func (s Store) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := `SELECT DISTINCT ` + taskColumns + ` FROM tasks t`
	var args []any

	if filter.Tag != "" {
		query += " JOIN task_tags tt ON t.id = tt.task_id AND tt.tag = ?"
		args = append(args, filter.Tag)
	}

	query += " WHERE 1 = 1"

	if filter.ProjectID != nil {
		query += " AND t.project_id = ?"
		args = append(args, *filter.ProjectID)
	}

	if filter.Search != "" {
		query += " AND (t.title LIKE ? OR t.description LIKE ?)"
		searchPattern := "%" + filter.Search + "%"
		args = append(args, searchPattern, searchPattern)
	}

	if filter.Status != "" {
		query += " AND t.status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY t.priority DESC, t.created_at ASC, t.id ASC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := s.loadChildren(ctx, &tasks[i], false); err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

func (s Store) loadChildren(ctx context.Context, t *models.Task, withCollaborators bool) error {
	tags, err := s.GetTaskTags(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Tags = tags

	subtasks, err := s.ListSubtasks(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Subtasks = subtasks

	if withCollaborators {
		collaborators, err := s.ListCollaborators(ctx, t.ID)
		if err != nil {
			return err
		}
		t.Collaborators = collaborators
	}
	return nil
}

// UpdateTaskStatus sets a task's status
func (s Store) UpdateTaskStatus(ctx context.Context, id string, status models.Status, now time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, status, now, id)
	return checkAffected(res, err, "task", id)
}

// UpdateTask writes the editable fields of a task
func (s Store) UpdateTask(ctx context.Context, t *models.Task) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, t.Priority, dateArg(t.DueDate), t.UpdatedAt, t.ID)
	return checkAffected(res, err, "task", t.ID)
}

// TouchTask bumps a task's updated_at
func (s Store) TouchTask(ctx context.Context, id string, now time.Time) error {
	res, err := s.q.ExecContext(ctx, "UPDATE tasks SET updated_at = ? WHERE id = ?", now, id)
	return checkAffected(res, err, "task", id)
}

func checkAffected(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}
