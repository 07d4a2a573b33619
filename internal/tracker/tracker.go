// Package tracker is the single authoritative entry point for reading and
// mutating tasks, subtasks, collaborators and their activity log.
//
// Every mutation runs as one transaction: validation and permission checks
// happen before anything is written, the roll-up is recomputed from the
// stored subtasks, and the activity entry is appended in the same
// transaction so a failed append rolls the whole mutation back. Mutations on
// the same task are serialized; different tasks proceed concurrently.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/db"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/rollup"
)

// Filter narrows Tasks
type Filter = db.TaskFilter

// Tracker routes every mutation and read for the list, board and detail
// surfaces.
type Tracker struct {
	db       *db.DB
	recorder *activity.Recorder
	logger   *slog.Logger
	locks    *keyedMutex
	now      func() time.Time
	newID    func() string

	subMu       sync.RWMutex
	subscribers map[int]func(Change)
	nextSub     int
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the time source used for created/updated timestamps
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDs overrides the id generator
func WithIDs(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// New creates a Tracker with dependency injection
func New(database *db.DB, recorder *activity.Recorder, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Tracker{
		db:          database,
		recorder:    recorder,
		logger:      logger,
		locks:       newKeyedMutex(),
		now:         time.Now,
		newID:       uuid.NewString,
		subscribers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) stamp() time.Time {
	return t.now().UTC()
}

// mutate runs fn in a transaction while holding taskID's lock and publishes
// the changes fn reports once the transaction has committed.
func (t *Tracker) mutate(ctx context.Context, taskID string, fn func(tx *db.Tx) ([]Change, error)) error {
	unlock := t.locks.Lock(taskID)
	var changes []Change
	err := t.db.WithTx(ctx, func(tx *db.Tx) error {
		var err error
		changes, err = fn(tx)
		return err
	})
	unlock()
	if err != nil {
		return err
	}
	t.publish(changes)
	return nil
}

func (t *Tracker) record(ctx context.Context, tx *db.Tx, taskID string, d activity.Draft) (Change, error) {
	if _, err := t.recorder.Record(ctx, tx, taskID, d); err != nil {
		return Change{}, err
	}
	return Change{TaskID: taskID, SubtaskID: d.SubtaskID, Kind: d.Kind, Surface: d.Surface}, nil
}

func fail(op, id string, err error) error {
	var te *models.TaskError
	if errors.As(err, &te) {
		return err
	}
	return &models.TaskError{Op: op, ID: id, Err: err}
}

func invalid(op, id, msg string) error {
	return &models.TaskError{Op: op, ID: id, Message: msg, Err: models.ErrValidation}
}

// checkCaller validates the editor identity and origin surface of a mutation
func checkCaller(op, id string, actor models.Actor, surface models.Surface) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return invalid(op, id, "editor is required")
	}
	if !actor.Role.Valid() {
		return &models.TaskError{Op: op, ID: id, Message: fmt.Sprintf("role %q", actor.Role), Err: models.ErrPermissionDenied}
	}
	if !surface.Valid() {
		return invalid(op, id, fmt.Sprintf("unknown origin surface %q", surface))
	}
	return nil
}

// read runs fn in one transaction so every query it makes sees the same
// committed state. It does not take the task lock.
func (t *Tracker) read(ctx context.Context, fn func(tx *db.Tx) error) error {
	return t.db.WithTx(ctx, fn)
}

// Task loads the full aggregate with a freshly computed roll-up
func (t *Tracker) Task(ctx context.Context, id string) (*models.Task, error) {
	var task *models.Task
	err := t.read(ctx, func(tx *db.Tx) error {
		var err error
		task, err = loadTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fail("get_task", id, err)
	}
	return task, nil
}

// TaskDetail loads the aggregate and its log (newest first) from the same
// snapshot, for views that show both
func (t *Tracker) TaskDetail(ctx context.Context, id string) (*models.Task, []activity.Entry, error) {
	var (
		task    *models.Task
		entries []activity.Entry
	)
	err := t.read(ctx, func(tx *db.Tx) error {
		var err error
		if task, err = loadTask(ctx, tx, id); err != nil {
			return err
		}
		entries, err = tx.ListEntries(ctx, id)
		return err
	})
	if err != nil {
		return nil, nil, fail("task_detail", id, err)
	}
	return task, entries, nil
}

// Tasks lists tasks matching filter, each with its roll-up computed. Tag
// matching ignores case and surrounding space, as tags are stored lowercased.
func (t *Tracker) Tasks(ctx context.Context, filter Filter) ([]models.Task, error) {
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))

	var tasks []models.Task
	err := t.read(ctx, func(tx *db.Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fail("list_tasks", "", err)
	}
	for i := range tasks {
		rollup.Apply(&tasks[i])
	}
	return tasks, nil
}

// Rollup returns the subtask roll-up of a task
func (t *Tracker) Rollup(ctx context.Context, taskID string) (models.Rollup, error) {
	task, err := t.Task(ctx, taskID)
	if err != nil {
		return models.Rollup{}, fail("rollup", taskID, err)
	}
	return task.Rollup, nil
}

// Activity returns a task's log, newest first
func (t *Tracker) Activity(ctx context.Context, taskID string) ([]activity.Entry, error) {
	var entries []activity.Entry
	err := t.read(ctx, func(tx *db.Tx) error {
		ok, err := tx.TaskExists(ctx, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrNotFound
		}
		entries, err = tx.ListEntries(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, fail("activity", taskID, err)
	}
	return entries, nil
}

// ResolveTask maps id to its owning task. For a task id it returns the id
// itself and an empty subtaskID.
func (t *Tracker) ResolveTask(ctx context.Context, id string) (taskID, subtaskID string, err error) {
	ok, err := t.db.TaskExists(ctx, id)
	if err != nil {
		return "", "", fail("resolve", id, err)
	}
	if ok {
		return id, "", nil
	}
	st, err := t.db.GetSubtask(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", "", fail("resolve", id, fmt.Errorf("task or subtask %s: %w", id, models.ErrNotFound))
		}
		return "", "", fail("resolve", id, err)
	}
	return st.TaskID, st.ID, nil
}

// CreateProject creates a project tasks can be filed under
func (t *Tracker) CreateProject(ctx context.Context, title, description string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("create_project", "", "title is required")
	}
	now := t.stamp()
	p := &models.Project{ID: t.newID(), Title: title, Description: description, CreatedAt: now, UpdatedAt: now}
	if err := t.db.InsertProject(ctx, p); err != nil {
		return nil, fail("create_project", p.ID, err)
	}
	t.logger.Info("project created", "project", p.ID, "title", p.Title)
	return p, nil
}

// Projects lists all projects
func (t *Tracker) Projects(ctx context.Context) ([]models.Project, error) {
	projects, err := t.db.ListProjects(ctx)
	if err != nil {
		return nil, fail("list_projects", "", err)
	}
	return projects, nil
}

// Project returns a project by id
func (t *Tracker) Project(ctx context.Context, id string) (*models.Project, error) {
	p, err := t.db.GetProject(ctx, id)
	if err != nil {
		return nil, fail("get_project", id, err)
	}
	return p, nil
}

// Tags lists every tag known to the store
func (t *Tracker) Tags(ctx context.Context) ([]models.Tag, error) {
	tags, err := t.db.ListTags(ctx)
	if err != nil {
		return nil, fail("list_tags", "", err)
	}
	return tags, nil
}

// Preference returns a stored UI preference, or "" when unset
func (t *Tracker) Preference(key string) string {
	v, err := t.db.GetSetting(key)
	if err != nil {
		t.logger.Warn("read preference", "key", key, "err", err)
		return ""
	}
	return v
}

// SetPreference stores a UI preference such as the last opened project.
// Failures are logged as well as returned.
func (t *Tracker) SetPreference(key, value string) error {
	if err := t.db.SetSetting(key, value); err != nil {
		t.logger.Warn("write preference", "key", key, "err", err)
		return err
	}
	return nil
}
