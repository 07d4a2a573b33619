package db

import (
	"context"
	"time"

	"github.com/tgienger/tally/internal/activity"
)

// InsertEntry appends an activity entry and records its insertion sequence
func (s Store) InsertEntry(ctx context.Context, e *activity.Entry) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO activity (id, task_id, subtask_id, kind, editor, field, from_value, to_value, subject, note, surface, at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.TaskID, e.SubtaskID, e.Kind, e.Editor, e.Field, e.From, e.To, e.Subject, e.Note, e.Surface, e.At.UnixNano())
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.Seq = seq
	return nil
}

// LatestEntryTime returns the timestamp of a task's newest entry, or the zero time
func (s Store) LatestEntryTime(ctx context.Context, taskID string) (time.Time, error) {
	var ns int64
	err := s.q.QueryRowContext(ctx, "SELECT COALESCE(MAX(at_ns), 0) FROM activity WHERE task_id = ?", taskID).Scan(&ns)
	if err != nil || ns == 0 {
		return time.Time{}, err
	}
	return time.Unix(0, ns).UTC(), nil
}

// ListEntries returns a task's activity, newest first
func (s Store) ListEntries(ctx context.Context, taskID string) ([]activity.Entry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT seq, id, task_id, subtask_id, kind, editor, field, from_value, to_value, subject, note, surface, at_ns
		FROM activity
		WHERE task_id = ?
		ORDER BY at_ns DESC, seq DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var (
			e  activity.Entry
			ns int64
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.TaskID, &e.SubtaskID, &e.Kind, &e.Editor, &e.Field, &e.From, &e.To, &e.Subject, &e.Note, &e.Surface, &ns); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, ns).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
