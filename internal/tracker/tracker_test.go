package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/db"
	"github.com/tgienger/tally/internal/models"
)

var (
	manager = models.Actor{UserID: "maria", Role: models.RoleManager}
	staff   = models.Actor{UserID: "sam", Role: models.RoleStaff}
)

func newTestTracker(t *testing.T) (*Tracker, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(database, activity.NewRecorder(), logger), database
}

func createTask(t *testing.T, tr *Tracker, title string) *models.Task {
	t.Helper()
	task, err := tr.CreateTask(context.Background(), TaskInput{Title: title}, staff, models.SurfaceList)
	require.NoError(t, err)
	return task
}

func createSubtask(t *testing.T, tr *Tracker, parentID, title string, status models.Status) string {
	t.Helper()
	id, err := tr.CreateSubtask(context.Background(), parentID, SubtaskInput{Title: title, Status: status}, staff, models.SurfaceDetail)
	require.NoError(t, err)
	return id
}

func rollupOf(t *testing.T, tr *Tracker, taskID string) string {
	t.Helper()
	r, err := tr.Rollup(context.Background(), taskID)
	require.NoError(t, err)
	return r.String()
}

func TestScenario_RollupThroughLifecycle(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	task := createTask(t, tr, "T")
	a := createSubtask(t, tr, task.ID, "A", models.StatusTodo)
	b := createSubtask(t, tr, task.ID, "B", models.StatusTodo)
	c := createSubtask(t, tr, task.ID, "C", models.StatusCompleted)
	assert.Equal(t, "1/3 subtasks complete", rollupOf(t, tr, task.ID))

	res, err := tr.UpdateStatus(ctx, b, models.StatusCompleted, staff, models.SurfaceBoard)
	require.NoError(t, err)
	assert.Equal(t, "2/3 subtasks complete", res.Task.Rollup.String())
	require.NotNil(t, res.Subtask)
	assert.Equal(t, models.StatusCompleted, res.Subtask.Status)
	assert.Equal(t, "2/3 subtasks complete", rollupOf(t, tr, task.ID))

	updated, err := tr.DeleteSubtask(ctx, a, manager, models.SurfaceDetail)
	require.NoError(t, err)
	assert.Equal(t, "2/2 subtasks complete", updated.Rollup.String())
	assert.Equal(t, "2/2 subtasks complete", rollupOf(t, tr, task.ID))

	_, err = tr.DeleteSubtask(ctx, c, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Equal(t, "2/2 subtasks complete", rollupOf(t, tr, task.ID))

	got, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, got.Subtasks, 2)
}

func TestEmptyRollup(t *testing.T) {
	tr, _ := newTestTracker(t)
	task := createTask(t, tr, "Lonely")
	assert.Equal(t, models.Rollup{}, task.Rollup)
	assert.Equal(t, "0/0 subtasks complete", rollupOf(t, tr, task.ID))
}

func TestUpdateStatus_AllTransitionsAllowed(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Flexible")

	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			_, err := tr.UpdateStatus(ctx, task.ID, from, staff, models.SurfaceList)
			require.NoError(t, err)
			res, err := tr.UpdateStatus(ctx, task.ID, to, staff, models.SurfaceList)
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, res.Task.Status)
		}
	}
}

func TestUpdateStatus_InvalidStatusLeavesStateUntouched(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Strict")
	before, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)

	_, err = tr.UpdateStatus(ctx, task.ID, models.Status("Archived"), staff, models.SurfaceList)
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	got, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, got.Status)
	after, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestUpdateStatus_NotFound(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.UpdateStatus(context.Background(), "missing", models.StatusBlocked, staff, models.SurfaceList)
	assert.ErrorIs(t, err, models.ErrNotFound)

	var te *models.TaskError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "update_status", te.Op)
}

func TestUpdateStatus_SameStatusIsQuiet(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Steady")

	_, err := tr.UpdateStatus(ctx, task.ID, models.StatusTodo, staff, models.SurfaceList)
	require.NoError(t, err)
	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // task_created only
}

func TestActivity_NewestFirstWithLabels(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Busy")

	path := []models.Status{models.StatusInProgress, models.StatusBlocked, models.StatusInProgress, models.StatusCompleted, models.StatusTodo}
	surfaces := []models.Surface{models.SurfaceList, models.SurfaceBoard, models.SurfaceDetail}
	for i, s := range path {
		_, err := tr.UpdateStatus(ctx, task.ID, s, staff, surfaces[i%len(surfaces)])
		require.NoError(t, err)
	}

	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, len(path)+1)

	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].At.After(entries[i].At), "entry %d not newer than %d", i-1, i)
	}

	prev := append([]models.Status{models.StatusTodo}, path...)
	for i := 0; i < len(path); i++ {
		e := entries[i]
		k := len(path) - 1 - i
		assert.Equal(t, activity.KindStatusChange, e.Kind)
		assert.Contains(t, e.Detail(), prev[k].Label())
		assert.Contains(t, e.Detail(), path[k].Label())
		assert.Equal(t, surfaces[k%len(surfaces)], e.Surface)
		assert.Equal(t, "sam", e.Editor)
	}
	assert.Equal(t, activity.KindTaskCreated, entries[len(entries)-1].Kind)
}

func TestSubtaskStatusLoggedOnParent(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Parent")
	sub := createSubtask(t, tr, task.ID, "Write docs", models.StatusTodo)

	_, err := tr.UpdateStatus(ctx, sub, models.StatusCompleted, staff, models.SurfaceBoard)
	require.NoError(t, err)

	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, sub, entries[0].SubtaskID)
	assert.Equal(t, `Subtask "Write docs" status changed from "To Do" to "Completed"`, entries[0].Detail())
}

func TestCrossSurfaceConsistency(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Shared view")
	createSubtask(t, tr, task.ID, "one", models.StatusTodo)
	sub := createSubtask(t, tr, task.ID, "two", models.StatusInProgress)

	before, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)

	var seen []Change
	cancel := tr.Subscribe(func(c Change) { seen = append(seen, c) })
	defer cancel()

	_, err = tr.UpdateStatus(ctx, sub, models.StatusCompleted, staff, models.SurfaceBoard)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, task.ID, seen[0].TaskID)
	assert.Equal(t, sub, seen[0].SubtaskID)
	assert.Equal(t, models.SurfaceBoard, seen[0].Surface)

	detail, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)
	list, err := tr.Tasks(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	direct, err := tr.Rollup(ctx, task.ID)
	require.NoError(t, err)

	assert.Equal(t, before.Rollup.Completed+1, detail.Rollup.Completed)
	assert.Equal(t, detail.Rollup, list[0].Rollup)
	assert.Equal(t, detail.Rollup, direct)
}

func TestSubscribeCancel(t *testing.T) {
	tr, _ := newTestTracker(t)
	calls := 0
	cancel := tr.Subscribe(func(Change) { calls++ })
	createTask(t, tr, "first")
	cancel()
	createTask(t, tr, "second")
	assert.Equal(t, 1, calls)
}

func TestUpdateFields(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Draft")

	title := "Final"
	desc := "ready to ship"
	prio := models.PriorityHigh
	due := "2026-11-30"
	updated, err := tr.UpdateFields(ctx, task.ID, FieldsPatch{Title: &title, Description: &desc, Priority: &prio, DueDate: &due}, staff, models.SurfaceDetail)
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "ready to ship", updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, "2026-11-30", models.FormatDate(updated.DueDate))

	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	kinds := map[activity.Kind]string{}
	for _, e := range entries {
		kinds[e.Kind] = e.Detail()
	}
	assert.Equal(t, `Title changed from "Draft" to "Final"`, kinds[activity.KindTitleChange])
	assert.Equal(t, `Priority changed from "Medium" to "High"`, kinds[activity.KindPriorityChange])
	assert.Equal(t, `Due date changed from "none" to "2026-11-30"`, kinds[activity.KindDueDateChange])
	assert.Contains(t, kinds, activity.KindDescriptionChange)
	assert.Len(t, entries, 5)

	// unchanged values produce no entries
	_, err = tr.UpdateFields(ctx, task.ID, FieldsPatch{Title: &title, Priority: &prio}, staff, models.SurfaceDetail)
	require.NoError(t, err)
	entries, err = tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	clear := ""
	updated, err = tr.UpdateFields(ctx, task.ID, FieldsPatch{DueDate: &clear}, staff, models.SurfaceList)
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
}

func TestUpdateFields_ValidationIsAtomic(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Keep me")

	empty := "   "
	_, err := tr.UpdateFields(ctx, task.ID, FieldsPatch{Title: &empty}, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrValidation)

	title := "Changed"
	bad := "31/12/2026"
	_, err = tr.UpdateFields(ctx, task.ID, FieldsPatch{Title: &title, DueDate: &bad}, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrValidation)

	prio := models.Priority(3)
	_, err = tr.UpdateFields(ctx, task.ID, FieldsPatch{Title: &title, Priority: &prio}, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrValidation)

	got, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", got.Title)

	_, err = tr.UpdateFields(ctx, "missing", FieldsPatch{Title: &title}, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateSubtask(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.CreateSubtask(ctx, "missing", SubtaskInput{Title: "orphan"}, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrNotFound)

	due := "2026-12-01"
	parent, err := tr.CreateTask(ctx, TaskInput{Title: "Parent", Priority: models.PriorityHigh, DueDate: due, Tags: []string{"ops"}}, staff, models.SurfaceList)
	require.NoError(t, err)

	_, err = tr.CreateSubtask(ctx, parent.ID, SubtaskInput{Title: ""}, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = tr.CreateSubtask(ctx, parent.ID, SubtaskInput{Title: "x", Status: "Done"}, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	id, err := tr.CreateSubtask(ctx, parent.ID, SubtaskInput{Title: "Child", Notes: "n"}, staff, models.SurfaceDetail)
	require.NoError(t, err)

	got, err := tr.Task(ctx, parent.ID)
	require.NoError(t, err)
	st, ok := got.Subtask(id)
	require.True(t, ok)
	assert.Equal(t, models.StatusTodo, st.Status)
	assert.Nil(t, st.DueDate)
	assert.Equal(t, parent.ID, st.TaskID)
	assert.Equal(t, "0/1 subtasks complete", got.Rollup.String())
}

func TestDeleteSubtask_PermissionGate(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Guarded")
	sub := createSubtask(t, tr, task.ID, "keep", models.StatusTodo)
	before, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)

	for _, actor := range []models.Actor{staff, {UserID: "eve", Role: "guest"}} {
		_, err := tr.DeleteSubtask(ctx, sub, actor, models.SurfaceDetail)
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	}

	got, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, got.Subtasks, 1)
	after, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	_, err = tr.DeleteSubtask(ctx, "missing", manager, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrNotFound)

	updated, err := tr.DeleteSubtask(ctx, sub, manager, models.SurfaceDetail)
	require.NoError(t, err)
	assert.Empty(t, updated.Subtasks)

	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, activity.KindSubtaskDeleted, entries[0].Kind)
	assert.Equal(t, `Subtask "keep" deleted`, entries[0].Detail())
}

func TestCollaborators(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Team")

	for i := 0; i < 2; i++ {
		_, err := tr.AddCollaborator(ctx, task.ID, "bob", models.CollaboratorEditor, staff, models.SurfaceDetail)
		require.NoError(t, err)
	}
	got, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Collaborators, 1)
	assert.Equal(t, models.CollaboratorEditor, got.Collaborators[0].Role)

	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2) // created + one add

	got, err = tr.AddCollaborator(ctx, task.ID, "bob", models.CollaboratorViewer, staff, models.SurfaceDetail)
	require.NoError(t, err)
	require.Len(t, got.Collaborators, 1)
	assert.Equal(t, models.CollaboratorViewer, got.Collaborators[0].Role)

	got, err = tr.RemoveCollaborator(ctx, task.ID, "bob", staff, models.SurfaceDetail)
	require.NoError(t, err)
	assert.Empty(t, got.Collaborators)

	_, err = tr.RemoveCollaborator(ctx, task.ID, "nobody", staff, models.SurfaceDetail)
	require.NoError(t, err)

	entries, err = tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, `Collaborator "bob" removed (was viewer)`, entries[0].Detail())
	assert.Equal(t, `Collaborator "bob" role changed from "editor" to "viewer"`, entries[1].Detail())

	_, err = tr.AddCollaborator(ctx, task.ID, "bob", models.CollaboratorRole("owner"), staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = tr.AddCollaborator(ctx, "missing", "bob", models.CollaboratorViewer, staff, models.SurfaceDetail)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTags(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Labelled")

	got, err := tr.AddTag(ctx, task.ID, " Urgent ", staff, models.SurfaceList)
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent"}, got.Tags)

	got, err = tr.AddTag(ctx, task.ID, "urgent", staff, models.SurfaceList)
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent"}, got.Tags)

	filtered, err := tr.Tasks(ctx, Filter{Tag: "urgent"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	got, err = tr.RemoveTag(ctx, task.ID, "urgent", staff, models.SurfaceList)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCallerValidation(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Who")

	_, err := tr.UpdateStatus(ctx, task.ID, models.StatusBlocked, models.Actor{Role: models.RoleStaff}, models.SurfaceList)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = tr.UpdateStatus(ctx, task.ID, models.StatusBlocked, staff, models.Surface("sidebar"))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = tr.UpdateStatus(ctx, task.ID, models.StatusBlocked, models.Actor{UserID: "x", Role: "intern"}, models.SurfaceList)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestProjects(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.CreateProject(ctx, " ", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	p, err := tr.CreateProject(ctx, "Launch", "Q4")
	require.NoError(t, err)

	task, err := tr.CreateTask(ctx, TaskInput{ProjectID: &p.ID, Title: "Ship"}, staff, models.SurfaceList)
	require.NoError(t, err)
	require.NotNil(t, task.ProjectID)

	missing := "nope"
	_, err = tr.CreateTask(ctx, TaskInput{ProjectID: &missing, Title: "Lost"}, staff, models.SurfaceList)
	assert.ErrorIs(t, err, models.ErrNotFound)

	inProject, err := tr.Tasks(ctx, Filter{ProjectID: &p.ID})
	require.NoError(t, err)
	assert.Len(t, inProject, 1)

	projects, err := tr.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestActivity_UnknownTask(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.Activity(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// An activity append that fails must leave the subtask and roll-up untouched.
func TestRecorderFailureRollsBackMutation(t *testing.T) {
	tr, database := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Atomic")
	sub := createSubtask(t, tr, task.ID, "child", models.StatusTodo)

	// make every further activity insert fail
	_, err := database.ExecContext(ctx, `
		CREATE TRIGGER activity_block BEFORE INSERT ON activity
		BEGIN SELECT RAISE(ABORT, 'log unavailable'); END;
	`)
	require.NoError(t, err)

	_, err = tr.UpdateStatus(ctx, sub, models.StatusCompleted, staff, models.SurfaceBoard)
	require.Error(t, err)

	got, err := tr.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "0/1 subtasks complete", got.Rollup.String())
	st, ok := got.Subtask(sub)
	require.True(t, ok)
	assert.Equal(t, models.StatusTodo, st.Status)
}

func TestConcurrentStatusChangesOnOneTask(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Contended")

	var subs []string
	for i := 0; i < 8; i++ {
		subs = append(subs, createSubtask(t, tr, task.ID, fmt.Sprintf("sub %d", i), models.StatusTodo))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(subs))
	for _, id := range subs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := tr.UpdateStatus(ctx, id, models.StatusCompleted, staff, models.SurfaceBoard); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, "8/8 subtasks complete", rollupOf(t, tr, task.ID))
	entries, err := tr.Activity(ctx, task.ID)
	require.NoError(t, err)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].At.After(entries[i].At))
	}
}

func TestReadsSeeOneSnapshot(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	task := createTask(t, tr, "Busy")
	sub := createSubtask(t, tr, task.ID, "flip", models.StatusTodo)

	done := make(chan struct{})
	writeErr := make(chan error, 1)
	go func() {
		defer close(done)
		statuses := []models.Status{models.StatusCompleted, models.StatusTodo}
		for i := 0; i < 200; i++ {
			if _, err := tr.UpdateStatus(ctx, sub, statuses[i%2], staff, models.SurfaceBoard); err != nil {
				writeErr <- err
				return
			}
		}
	}()

	reads := 0
	for running := true; running; reads++ {
		select {
		case <-done:
			running = false
		default:
		}

		got, err := tr.Task(ctx, task.ID)
		require.NoError(t, err)
		st, ok := got.Subtask(sub)
		require.True(t, ok)
		// subtask and parent are stamped with the same time in one transaction
		require.False(t, st.UpdatedAt.After(got.UpdatedAt), "read %d mixed two commits", reads)

		detail, entries, err := tr.TaskDetail(ctx, task.ID)
		require.NoError(t, err)
		st, _ = detail.Subtask(sub)
		require.NotEmpty(t, entries)
		if entries[0].Kind == activity.KindStatusChange {
			require.Equal(t, string(st.Status), entries[0].To, "read %d: log and subtask disagree", reads)
		}
	}

	select {
	case err := <-writeErr:
		require.NoError(t, err)
	default:
	}
	assert.Greater(t, reads, 0)
}

func TestTasks_TagFilterIgnoresCase(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	_, err := tr.CreateTask(ctx, TaskInput{Title: "Tagged", Tags: []string{"Ops"}}, staff, models.SurfaceList)
	require.NoError(t, err)
	createTask(t, tr, "Untagged")

	for _, tag := range []string{"ops", "Ops", " OPS "} {
		tasks, err := tr.Tasks(ctx, Filter{Tag: tag})
		require.NoError(t, err)
		require.Len(t, tasks, 1, tag)
		assert.Equal(t, "Tagged", tasks[0].Title)
	}
}

func TestSetPreference_LogsFailure(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)

	var buf bytes.Buffer
	tr := New(database, activity.NewRecorder(), slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, database.Close())

	assert.Error(t, tr.SetPreference("last_view", "kanban_board"))
	assert.Contains(t, buf.String(), "write preference")
	assert.Contains(t, buf.String(), "last_view")
}

func TestTagsAndPreferences(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	_, err := tr.CreateTask(ctx, TaskInput{Title: "Tagged", Tags: []string{"Ops", "ops", "infra"}}, staff, models.SurfaceList)
	require.NoError(t, err)

	tags, err := tr.Tags(ctx)
	require.NoError(t, err)
	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"infra", "ops"}, names)

	assert.Equal(t, "", tr.Preference("last_view"))
	require.NoError(t, tr.SetPreference("last_view", "board"))
	assert.Equal(t, "board", tr.Preference("last_view"))
}
