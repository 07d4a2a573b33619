package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tgienger/tally/internal/models"
)

// InsertProject stores a new project
func (s Store) InsertProject(ctx context.Context, p *models.Project) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Description, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetProject retrieves a project by ID
func (s Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p := &models.Project{}
	err := s.q.QueryRowContext(ctx, `
		SELECT id, title, description, created_at, updated_at
		FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProjects returns all projects, most recently updated first
func (s Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, title, description, created_at, updated_at
		FROM projects ORDER BY updated_at DESC, title ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ProjectCount returns the number of projects
func (s Store) ProjectCount(ctx context.Context) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}
