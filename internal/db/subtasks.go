package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tgienger/tally/internal/models"
)

const subtaskColumns = `id, task_id, title, notes, status, due_date, created_at, updated_at`

func scanSubtask(row rowScanner) (models.Subtask, error) {
	var (
		st  models.Subtask
		due sql.NullString
	)
	if err := row.Scan(&st.ID, &st.TaskID, &st.Title, &st.Notes, &st.Status, &due, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return st, err
	}
	st.DueDate = scanDate(due)
	return st, nil
}

// InsertSubtask appends a subtask to the end of its parent's collection
func (s Store) InsertSubtask(ctx context.Context, st *models.Subtask) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO subtasks (id, task_id, title, notes, status, due_date, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM subtasks WHERE task_id = ?), ?, ?)
	`, st.ID, st.TaskID, st.Title, st.Notes, st.Status, dateArg(st.DueDate), st.TaskID, st.CreatedAt, st.UpdatedAt)
	return err
}

// GetSubtask retrieves a subtask by ID
func (s Store) GetSubtask(ctx context.Context, id string) (*models.Subtask, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`, id)
	st, err := scanSubtask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("subtask", id)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListSubtasks returns a task's subtasks in creation order
func (s Store) ListSubtasks(ctx context.Context, taskID string) ([]models.Subtask, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+subtaskColumns+`
		FROM subtasks
		WHERE task_id = ?
		ORDER BY position ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtasks []models.Subtask
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

// UpdateSubtaskStatus sets a subtask's status
func (s Store) UpdateSubtaskStatus(ctx context.Context, id string, status models.Status, now time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE subtasks SET status = ?, updated_at = ? WHERE id = ?
	`, status, now, id)
	return checkAffected(res, err, "subtask", id)
}

// DeleteSubtask deletes a subtask
func (s Store) DeleteSubtask(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	return checkAffected(res, err, "subtask", id)
}
