// Package ui is the interactive front end. The list, board and detail views
// are three surfaces over the same tracker; every committed mutation is
// broadcast to all of them so they re-read the task instead of keeping
// their own copies.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/tracker"
	"github.com/tgienger/tally/internal/ui/views"
)

// Preference keys persisted between runs
const (
	prefLastProject = "last_project_id"
	prefLastView    = "last_view"

	// allTasks marks the "All tasks" entry as the last opened project
	allTasks = "*"
)

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewTasks
	ViewDetail
)

// Preferences stores small UI settings between runs
type Preferences interface {
	Preference(key string) string
	SetPreference(key, value string) error
}

type App struct {
	session views.Session
	prefs   Preferences

	currentView View
	boardLayout bool // board instead of list for ViewTasks

	projectList *views.ProjectListView
	taskList    *views.TaskListView
	board       *views.BoardView
	detail      *views.DetailView

	width  int
	height int
}

// restoreMsg carries the project reopened from the last session
type restoreMsg struct {
	project *models.Project
	ok      bool
}

// NewApp creates a new application. layout picks the task view when no
// previous choice was saved.
func NewApp(session views.Session, prefs Preferences, layout models.Surface) *App {
	boardLayout := layout == models.SurfaceBoard
	switch prefs.Preference(prefLastView) {
	case string(models.SurfaceBoard):
		boardLayout = true
	case string(models.SurfaceList):
		boardLayout = false
	}
	return &App{
		session:     session,
		prefs:       prefs,
		currentView: ViewProjects,
		boardLayout: boardLayout,
		projectList: views.NewProjectListView(session),
	}
}

func (a *App) Init() tea.Cmd {
	last := a.prefs.Preference(prefLastProject)
	if last == "" {
		return a.projectList.Init()
	}
	s := a.session
	return func() tea.Msg {
		if last == allTasks {
			return restoreMsg{ok: true}
		}
		projects, err := s.Tracker.Projects(s.Ctx)
		if err != nil {
			return restoreMsg{}
		}
		for i := range projects {
			if projects[i].ID == last {
				return restoreMsg{project: &projects[i], ok: true}
			}
		}
		return restoreMsg{}
	}
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) openProject(project *models.Project) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.session, project)
	a.board = views.NewBoardView(a.session, project)

	last := allTasks
	if project != nil {
		last = project.ID
	}
	a.savePreference(prefLastProject, last)

	return tea.Batch(a.taskList.Init(), a.board.Init(), a.resize())
}

// savePreference stores a UI setting. A failed write only loses the setting
// for the next run, so it is not surfaced in the views; the tracker logs it.
func (a *App) savePreference(key, value string) {
	_ = a.prefs.SetPreference(key, value)
}

// tasksView is the active task surface
func (a *App) tasksView() tea.Model {
	if a.boardLayout {
		return a.board
	}
	return a.taskList
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// every live view keeps its size so switching does not flash
		var cmds []tea.Cmd
		for _, m := range a.live() {
			_, cmd := m.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case restoreMsg:
		if !msg.ok {
			a.savePreference(prefLastProject, "")
			return a, a.projectList.Init()
		}
		return a, a.openProject(msg.project)

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.currentView = ViewProjects
		a.taskList, a.board, a.detail = nil, nil, nil
		a.savePreference(prefLastProject, "")
		return a, tea.Batch(a.projectList.Init(), a.resize())

	case views.ToggleLayout:
		a.boardLayout = !a.boardLayout
		view := models.SurfaceList
		if a.boardLayout {
			view = models.SurfaceBoard
		}
		a.savePreference(prefLastView, string(view))
		return a, nil

	case views.OpenTask:
		a.currentView = ViewDetail
		a.detail = views.NewDetailView(a.session, msg.TaskID)
		return a, tea.Batch(a.detail.Init(), a.resize())

	case views.CloseTask:
		a.currentView = ViewTasks
		a.detail = nil
		return a, nil

	case views.ChangedMsg:
		// every open surface reloads, not just the one on screen
		var cmds []tea.Cmd
		for _, m := range a.live() {
			_, cmd := m.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)
	}

	if r, ok := msg.(views.Routed); ok {
		if m := a.surface(r.Target()); m != nil {
			_, cmd := m.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		_, cmd = a.tasksView().Update(msg)
	case ViewDetail:
		_, cmd = a.detail.Update(msg)
	}
	return a, cmd
}

// surface returns the open view for a surface, or nil
func (a *App) surface(s models.Surface) tea.Model {
	switch {
	case s == models.SurfaceList && a.taskList != nil:
		return a.taskList
	case s == models.SurfaceBoard && a.board != nil:
		return a.board
	case s == models.SurfaceDetail && a.detail != nil:
		return a.detail
	}
	return nil
}

// live returns every view currently holding state
func (a *App) live() []tea.Model {
	out := []tea.Model{a.projectList}
	if a.taskList != nil {
		out = append(out, a.taskList, a.board)
	}
	if a.detail != nil {
		out = append(out, a.detail)
	}
	return out
}

func (a *App) View() string {
	switch a.currentView {
	case ViewTasks:
		return a.tasksView().View()
	case ViewDetail:
		return a.detail.View()
	}
	return a.projectList.View()
}

// Run starts the interactive views and blocks until the user quits
func Run(ctx context.Context, tr *tracker.Tracker, actor models.Actor, layout models.Surface) error {
	session := views.Session{Ctx: ctx, Tracker: tr, Actor: actor}
	p := tea.NewProgram(NewApp(session, tr, layout), tea.WithAltScreen(), tea.WithContext(ctx))

	cancel := tr.Subscribe(func(c tracker.Change) {
		p.Send(views.ChangedMsg{Change: c})
	})
	defer cancel()

	_, err := p.Run()
	return err
}
