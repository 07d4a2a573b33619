package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/tracker"
	"github.com/tgienger/tally/internal/ui/styles"
)

// Tracker is the subset of the tracker the views read from and mutate through
type Tracker interface {
	Tasks(ctx context.Context, filter tracker.Filter) ([]models.Task, error)
	TaskDetail(ctx context.Context, id string) (*models.Task, []activity.Entry, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	Projects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, title, description string) (*models.Project, error)
	CreateTask(ctx context.Context, in tracker.TaskInput, actor models.Actor, surface models.Surface) (*models.Task, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, actor models.Actor, surface models.Surface) (*tracker.StatusResult, error)
	UpdateFields(ctx context.Context, taskID string, patch tracker.FieldsPatch, actor models.Actor, surface models.Surface) (*models.Task, error)
	CreateSubtask(ctx context.Context, parentID string, in tracker.SubtaskInput, actor models.Actor, surface models.Surface) (string, error)
	DeleteSubtask(ctx context.Context, subtaskID string, actor models.Actor, surface models.Surface) (*models.Task, error)
	AddCollaborator(ctx context.Context, taskID, userID string, role models.CollaboratorRole, actor models.Actor, surface models.Surface) (*models.Task, error)
}

// Session carries what every view needs to talk to the tracker
type Session struct {
	Ctx     context.Context
	Tracker Tracker
	Actor   models.Actor
}

// ChangedMsg is delivered when any surface commits a mutation
type ChangedMsg struct {
	Change tracker.Change
}

// SelectedProject opens the task views for a project; nil means all tasks
type SelectedProject struct {
	Project *models.Project
}

// BackToProjects signals to go back to project list
type BackToProjects struct{}

// OpenTask switches to the detail view of a task
type OpenTask struct {
	TaskID string
}

// CloseTask returns from the detail view
type CloseTask struct{}

// ToggleLayout switches between the list and the board
type ToggleLayout struct{}

// Routed is implemented by messages meant for one surface only. The app
// delivers them to that surface even when another one is on screen.
type Routed interface {
	Target() models.Surface
}

// mutationDoneMsg reports the outcome of a mutation issued by a view
type mutationDoneMsg struct {
	origin models.Surface
	notice string
	err    error
}

func (m mutationDoneMsg) Target() models.Surface { return m.origin }

// mutate runs fn as a command and reports its outcome back to origin
func mutate(origin models.Surface, notice string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return mutationDoneMsg{origin: origin, err: err}
		}
		return mutationDoneMsg{origin: origin, notice: notice}
	}
}

// statusLine is the one-line feedback area under each view
type statusLine struct {
	text string
	err  bool
}

func (l *statusLine) set(msg mutationDoneMsg) {
	if msg.err != nil {
		l.text, l.err = describeError(msg.err), true
		return
	}
	l.text, l.err = msg.notice, false
}

func (l statusLine) render(s *styles.Styles) string {
	if l.text == "" {
		return ""
	}
	if l.err {
		return s.Error.Render(l.text)
	}
	return s.Notice.Render(l.text)
}

// describeError turns tracker errors into short user-facing text
func describeError(err error) string {
	switch {
	case errors.Is(err, models.ErrPermissionDenied):
		return "Permission denied: " + err.Error()
	case errors.Is(err, models.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, models.ErrInvalidStatus), errors.Is(err, models.ErrValidation):
		return "Invalid: " + err.Error()
	}
	return fmt.Sprintf("Error: %v", err)
}

// helpLine renders "k desc • k desc" pairs
func helpLine(s *styles.Styles, pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.HelpKey.Render(pairs[i])+" "+pairs[i+1])
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
