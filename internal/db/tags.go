package db

import (
	"context"
	"time"

	"github.com/tgienger/tally/internal/models"
)

// EnsureTag creates a tag if it does not exist yet
func (s Store) EnsureTag(ctx context.Context, name, color string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO tags (name, color, created_at) VALUES (?, ?, ?)
	`, name, color, time.Now().UTC())
	return err
}

// ListTags returns all tags
func (s Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT name, color, created_at FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTaskTags returns the sorted tag names on a task
func (s Store) GetTaskTags(ctx context.Context, taskID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT tag FROM task_tags WHERE task_id = ? ORDER BY tag", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// AddTagToTask adds a tag to a task, creating the tag if needed. Adding an
// existing tag is a no-op.
func (s Store) AddTagToTask(ctx context.Context, taskID, tag string) error {
	if err := s.EnsureTag(ctx, tag, ""); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)
	`, taskID, tag)
	return err
}

// RemoveTagFromTask removes a tag from a task
func (s Store) RemoveTagFromTask(ctx context.Context, taskID, tag string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = ? AND tag = ?", taskID, tag)
	return err
}
