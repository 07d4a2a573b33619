package views

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/db"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/surface"
	"github.com/tgienger/tally/internal/tracker"
)

var (
	manager = models.Actor{UserID: "maria", Role: models.RoleManager}
	staff   = models.Actor{UserID: "sam", Role: models.RoleStaff}
)

func newTestTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return tracker.New(database, activity.NewRecorder(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// seed creates T with subtasks A and B open and C completed
func seed(t *testing.T, tr *tracker.Tracker) *models.Task {
	t.Helper()
	ctx := context.Background()
	task, err := tr.CreateTask(ctx, tracker.TaskInput{Title: "T"}, staff, models.SurfaceList)
	require.NoError(t, err)
	for _, st := range []struct {
		title  string
		status models.Status
	}{
		{"A", models.StatusTodo},
		{"B", models.StatusTodo},
		{"C", models.StatusCompleted},
	} {
		_, err := tr.CreateSubtask(ctx, task.ID, tracker.SubtaskInput{Title: st.title, Status: st.status}, staff, models.SurfaceDetail)
		require.NoError(t, err)
	}
	return task
}

// drain runs cmd and feeds each resulting message back into m until the
// chain ends
func drain(m tea.Model, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(m tea.Model, k string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	return cmd
}

func TestBoardMoveIsSeenByList(t *testing.T) {
	tr := newTestTracker(t)
	task := seed(t, tr)

	var changes []tracker.Change
	cancel := tr.Subscribe(func(c tracker.Change) { changes = append(changes, c) })
	defer cancel()

	session := Session{Ctx: context.Background(), Tracker: tr, Actor: staff}
	list := NewTaskListView(session, nil)
	board := NewBoardView(session, nil)
	drain(list, list.Init())
	drain(board, board.Init())

	require.Len(t, board.columns[0].Cards, 1)
	assert.Equal(t, "1/3 subtasks complete", board.columns[0].Cards[0].RollupLabel)

	drain(board, press(board, "s"))

	assert.Empty(t, board.columns[0].Cards)
	require.Len(t, board.columns[1].Cards, 1)
	assert.Equal(t, task.ID, board.columns[1].Cards[0].ID)
	assert.Equal(t, 1, board.col)
	assert.False(t, board.status.err)

	// the list has not reloaded yet
	assert.Equal(t, models.StatusTodo, list.tasks[0].Status)

	require.Len(t, changes, 1)
	assert.Equal(t, models.SurfaceBoard, changes[0].Surface)
	_, cmd := list.Update(ChangedMsg{Change: changes[0]})
	drain(list, cmd)

	require.Len(t, list.tasks, 1)
	assert.Equal(t, models.StatusInProgress, list.tasks[0].Status)
	assert.Equal(t, surface.RollupLabel(list.tasks[0]), board.columns[1].Cards[0].RollupLabel)
}

func TestListCreatesTaskWithActiveTag(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	_, err := tr.CreateTask(ctx, tracker.TaskInput{Title: "tagged", Tags: []string{"ops"}}, staff, models.SurfaceList)
	require.NoError(t, err)

	list := NewTaskListView(Session{Ctx: ctx, Tracker: tr, Actor: staff}, nil)
	drain(list, list.Init())

	drain(list, press(list, "f"))
	assert.Equal(t, "ops", list.query.tag)

	press(list, "n")
	require.True(t, list.creating)
	for _, r := range "second" {
		list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := list.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(list, cmd)

	require.Len(t, list.tasks, 2)
	for _, task := range list.tasks {
		assert.True(t, task.HasTag("ops"), task.Title)
	}
}

func TestDetailSubtaskStatusAndLog(t *testing.T) {
	tr := newTestTracker(t)
	task := seed(t, tr)

	detail := NewDetailView(Session{Ctx: context.Background(), Tracker: tr, Actor: staff}, task.ID)
	drain(detail, detail.Init())
	require.Len(t, detail.view.Subtasks, 3)
	assert.Equal(t, "1/3 subtasks complete", detail.view.RollupLabel)

	// S wraps Todo back to Completed
	drain(detail, press(detail, "S"))

	assert.Equal(t, "2/3 subtasks complete", detail.view.RollupLabel)
	assert.True(t, detail.view.Subtasks[0].Done)
	require.NotEmpty(t, detail.view.Log)
	assert.Equal(t, models.SurfaceDetail, detail.view.Log[0].Surface)
	assert.Equal(t, "sam", detail.view.Log[0].Editor)
}

func TestDetailDeleteSubtask(t *testing.T) {
	tr := newTestTracker(t)
	task := seed(t, tr)

	detail := NewDetailView(Session{Ctx: context.Background(), Tracker: tr, Actor: manager}, task.ID)
	drain(detail, detail.Init())
	assert.Contains(t, detail.renderHelp(100), "delete")

	assert.Nil(t, press(detail, "d"))
	require.Equal(t, detailConfirmDelete, detail.mode)
	drain(detail, press(detail, "y"))

	assert.Equal(t, detailNormal, detail.mode)
	assert.False(t, detail.status.err)
	assert.Len(t, detail.view.Subtasks, 2)
	assert.Equal(t, "1/2 subtasks complete", detail.view.RollupLabel)
}

func TestDetailHidesDeleteFromStaff(t *testing.T) {
	tr := newTestTracker(t)
	task := seed(t, tr)

	detail := NewDetailView(Session{Ctx: context.Background(), Tracker: tr, Actor: staff}, task.ID)
	drain(detail, detail.Init())

	assert.False(t, detail.keys.Delete.Enabled())
	assert.NotContains(t, detail.renderHelp(100), "delete")

	for _, k := range []string{"d", "x"} {
		assert.Nil(t, press(detail, k))
		assert.Equal(t, detailNormal, detail.mode)
	}
	assert.Empty(t, detail.status.text)
	assert.Len(t, detail.view.Subtasks, 3)
	assert.Equal(t, "1/3 subtasks complete", detail.view.RollupLabel)
}

func TestDetailIgnoresOtherTasks(t *testing.T) {
	tr := newTestTracker(t)
	task := seed(t, tr)

	detail := NewDetailView(Session{Ctx: context.Background(), Tracker: tr, Actor: staff}, task.ID)
	_, cmd := detail.Update(ChangedMsg{Change: tracker.Change{TaskID: "other"}})
	assert.Nil(t, cmd)

	_, cmd = detail.Update(ChangedMsg{Change: tracker.Change{TaskID: task.ID}})
	assert.NotNil(t, cmd)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{models.ErrPermissionDenied, "Permission denied"},
		{models.ErrNotFound, "Not found"},
		{models.ErrInvalidStatus, "Invalid"},
		{models.ErrValidation, "Invalid"},
		{errors.New("disk full"), "Error: disk full"},
	}
	for _, tt := range tests {
		assert.Contains(t, describeError(tt.err), tt.want)
	}
}
