package db

import (
	"context"
	"time"

	"github.com/tgienger/tally/internal/models"
)

// ListCollaborators returns a task's collaborators ordered by user id
func (s Store) ListCollaborators(ctx context.Context, taskID string) ([]models.Collaborator, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT user_id, role, added_at FROM collaborators WHERE task_id = ? ORDER BY user_id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collaborators []models.Collaborator
	for rows.Next() {
		var c models.Collaborator
		if err := rows.Scan(&c.UserID, &c.Role, &c.AddedAt); err != nil {
			return nil, err
		}
		collaborators = append(collaborators, c)
	}
	return collaborators, rows.Err()
}

// UpsertCollaborator adds userID to a task or updates their role; one row per user
func (s Store) UpsertCollaborator(ctx context.Context, taskID, userID string, role models.CollaboratorRole, now time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO collaborators (task_id, user_id, role, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(task_id, user_id) DO UPDATE SET role = excluded.role
	`, taskID, userID, role, now)
	return err
}

// DeleteCollaborator removes userID from a task
func (s Store) DeleteCollaborator(ctx context.Context, taskID, userID string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM collaborators WHERE task_id = ? AND user_id = ?", taskID, userID)
	return err
}
