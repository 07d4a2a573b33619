package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tgienger/tally/internal/models"
)

// Store persists entries. Implementations must make InsertEntry part of the
// caller's transaction so a failed append fails the whole mutation.
type Store interface {
	TaskExists(ctx context.Context, taskID string) (bool, error)
	LatestEntryTime(ctx context.Context, taskID string) (time.Time, error)
	InsertEntry(ctx context.Context, e *Entry) error
}

// Draft is the caller-supplied part of an entry
type Draft struct {
	Kind      Kind
	SubtaskID string
	Editor    string
	From      string
	To        string
	Subject   string
	Note      string
	Surface   models.Surface
}

// Recorder stamps and appends entries
type Recorder struct {
	now   func() time.Time
	newID func() string

	mu   sync.Mutex
	last time.Time
}

// Option configures a Recorder
type Option func(*Recorder)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a recorder using the wall clock and random UUIDs
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record validates d, stamps it and appends it for taskID through store.
func (r *Recorder) Record(ctx context.Context, store Store, taskID string, d Draft) (Entry, error) {
	if err := validate(d); err != nil {
		return Entry{}, err
	}

	ok, err := store.TaskExists(ctx, taskID)
	if err != nil {
		return Entry{}, fmt.Errorf("check task %s: %w", taskID, err)
	}
	if !ok {
		return Entry{}, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}

	latest, err := store.LatestEntryTime(ctx, taskID)
	if err != nil {
		return Entry{}, fmt.Errorf("latest entry for %s: %w", taskID, err)
	}

	e := Entry{
		ID:        r.newID(),
		TaskID:    taskID,
		SubtaskID: d.SubtaskID,
		Kind:      d.Kind,
		Editor:    d.Editor,
		Field:     d.Kind.Field(),
		From:      d.From,
		To:        d.To,
		Subject:   d.Subject,
		Note:      d.Note,
		Surface:   d.Surface,
		At:        r.stamp(latest),
	}
	if err := store.InsertEntry(ctx, &e); err != nil {
		return Entry{}, fmt.Errorf("append %s entry: %w", d.Kind, err)
	}
	return e, nil
}

// stamp returns a timestamp strictly after both the task's latest entry and
// every timestamp this recorder has handed out.
func (r *Recorder) stamp(latest time.Time) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	floor := r.last
	if latest.After(floor) {
		floor = latest
	}
	at := r.now().UTC().Round(0)
	if !at.After(floor) {
		at = floor.Add(time.Nanosecond)
	}
	r.last = at
	return at
}

func validate(d Draft) error {
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: unknown activity kind %q", models.ErrValidation, d.Kind)
	}
	if !d.Surface.Valid() {
		return fmt.Errorf("%w: unknown origin surface %q", models.ErrValidation, d.Surface)
	}
	if d.Editor == "" {
		return fmt.Errorf("%w: editor is required", models.ErrValidation)
	}
	if d.Kind.requiresBoth() && (d.From == "" || d.To == "") {
		return fmt.Errorf("%w: %s needs previous and new values", models.ErrValidation, d.Kind)
	}
	return nil
}
