package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/rollup"
	"github.com/tgienger/tally/internal/surface"
	"github.com/tgienger/tally/internal/tracker"
	"github.com/tgienger/tally/internal/ui/keys"
	"github.com/tgienger/tally/internal/ui/styles"
)

// taskQuery is the project, search and tag scope shared by the list and board
type taskQuery struct {
	project *models.Project
	search  string
	tag     string
}

func (q taskQuery) filter() tracker.Filter {
	f := tracker.Filter{Search: q.search, Tag: q.tag}
	if q.project != nil {
		f.ProjectID = &q.project.ID
	}
	return f
}

func (q taskQuery) title() string {
	if q.project == nil {
		return "All tasks"
	}
	return q.project.Title
}

type tasksLoadedMsg struct {
	origin models.Surface
	tasks  []models.Task
	tags   []models.Tag
	err    error
}

func (m tasksLoadedMsg) Target() models.Surface { return m.origin }

func loadTasks(session Session, q taskQuery, origin models.Surface) tea.Cmd {
	return func() tea.Msg {
		tasks, err := session.Tracker.Tasks(session.Ctx, q.filter())
		if err != nil {
			return tasksLoadedMsg{origin: origin, err: err}
		}
		tags, err := session.Tracker.Tags(session.Ctx)
		return tasksLoadedMsg{origin: origin, tasks: tasks, tags: tags, err: err}
	}
}

// nextTag cycles through "" and every known tag
func nextTag(current string, tags []models.Tag) string {
	if len(tags) == 0 {
		return ""
	}
	if current == "" {
		return tags[0].Name
	}
	for i, t := range tags {
		if t.Name == current {
			if i+1 < len(tags) {
				return tags[i+1].Name
			}
			return ""
		}
	}
	return ""
}

// TaskListView is the list surface
type TaskListView struct {
	session Session
	query   taskQuery
	tasks   []models.Task
	tags    []models.Tag
	styles  *styles.Styles
	keys    keys.KeyMap
	status  statusLine

	width  int
	height int

	cursor  int
	scrollY int

	searching   bool
	searchInput textinput.Model

	creating bool
	newTitle textinput.Model

	showHelpPopup bool
}

// NewTaskListView creates the list surface for a project (nil for all tasks)
func NewTaskListView(session Session, project *models.Project) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	newTitle := textinput.New()
	newTitle.Placeholder = "Task title"
	newTitle.CharLimit = 200

	return &TaskListView{
		session:     session,
		query:       taskQuery{project: project},
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		searchInput: search,
		newTitle:    newTitle,
	}
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return loadTasks(v.session, v.query, models.SurfaceList)
}

func (v *TaskListView) reload() tea.Cmd {
	return loadTasks(v.session, v.query, models.SurfaceList)
}

// Selected returns the task under the cursor
func (v *TaskListView) Selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tasksLoadedMsg:
		if msg.err != nil {
			v.status.set(mutationDoneMsg{err: msg.err})
			return v, nil
		}
		v.tasks = msg.tasks
		v.tags = msg.tags
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureVisible()
		return v, nil

	case ChangedMsg:
		return v, v.reload()

	case mutationDoneMsg:
		v.status.set(msg)
		return v, v.reload()

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		if v.searching {
			return v.updateSearching(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Board):
		return v, func() tea.Msg { return ToggleLayout{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Enter):
		if t, ok := v.Selected(); ok {
			return v, func() tea.Msg { return OpenTask{TaskID: t.ID} }
		}

	case key.Matches(msg, v.keys.NextStatus), key.Matches(msg, v.keys.PrevStatus):
		t, ok := v.Selected()
		if !ok {
			return v, nil
		}
		next := t.Status.Next()
		if key.Matches(msg, v.keys.PrevStatus) {
			next = t.Status.Prev()
		}
		return v, v.setStatus(t, next)

	case key.Matches(msg, v.keys.New):
		v.creating = true
		v.newTitle.Reset()
		v.newTitle.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.query.tag = nextTag(v.query.tag, v.tags)
		v.cursor, v.scrollY = 0, 0
		return v, v.reload()

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}

	return v, nil
}

func (v *TaskListView) setStatus(t models.Task, status models.Status) tea.Cmd {
	s := v.session
	notice := fmt.Sprintf("%q → %s", t.Title, status.Label())
	return mutate(models.SurfaceList, notice, func() error {
		_, err := s.Tracker.UpdateStatus(s.Ctx, t.ID, status, s.Actor, models.SurfaceList)
		return err
	})
}

func (v *TaskListView) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	v.query.search = strings.TrimSpace(v.searchInput.Value())
	v.cursor, v.scrollY = 0, 0
	return v, tea.Batch(cmd, v.reload())
}

func (v *TaskListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.newTitle.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		title := strings.TrimSpace(v.newTitle.Value())
		v.creating = false
		v.newTitle.Blur()
		if title == "" {
			return v, nil
		}
		return v, createTask(v.session, v.query, title, "", models.SurfaceList)
	}
	var cmd tea.Cmd
	v.newTitle, cmd = v.newTitle.Update(msg)
	return v, cmd
}

// createTask files a new task under the query's project and tag
func createTask(s Session, q taskQuery, title string, status models.Status, origin models.Surface) tea.Cmd {
	in := tracker.TaskInput{Title: title, Status: status}
	if q.project != nil {
		in.ProjectID = &q.project.ID
	}
	if q.tag != "" {
		in.Tags = []string{q.tag}
	}
	return mutate(origin, fmt.Sprintf("Created %q", title), func() error {
		_, err := s.Tracker.CreateTask(s.Ctx, in, s.Actor, origin)
		return err
	})
}

func (v *TaskListView) visibleItems() int {
	// two lines per task plus a blank separator
	return max((v.height-10)/3, 1)
}

func (v *TaskListView) ensureVisible() {
	n := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	}
	if v.cursor >= v.scrollY+n {
		v.scrollY = v.cursor - n + 1
	}
}

// View renders the list
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height, []string{
			"↵", "open detail",
			"s / S", "next / previous status",
			"n", "new task",
			"/", "search",
			"f", "cycle tag filter",
			"b", "switch to board",
			"esc", "projects",
			"q", "quit",
		})
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.status.render(v.styles))
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(contentWidth-30, 10, 40)).Render(v.searchInput.View())

	tagLabel := "Tags: All"
	if v.query.tag != "" {
		tagLabel = "Tags: " + v.query.tag
	}
	tagBtn := s.Button.Render(tagLabel)

	header := lipgloss.JoinHorizontal(lipgloss.Center, searchBox, "  ", tagBtn)
	title := s.Title.Render(v.query.title()) + s.TitleMuted.Render("  list")

	if v.creating {
		header = lipgloss.JoinVertical(lipgloss.Left, header,
			s.InputFocused.Width(clamp(contentWidth-6, 20, 60)).Render(v.newTitle.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, header)
}

func (v *TaskListView) renderTaskList() string {
	if len(v.tasks) == 0 {
		return v.styles.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	rows := surface.List(v.tasks)
	end := min(v.scrollY+v.visibleItems(), len(rows))
	var items []string
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], rows[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, row surface.ListRow, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 30)

	prio := lipgloss.NewStyle().Foreground(styles.PriorityColor(task.Priority)).Render(fmt.Sprintf("[%s]", row.Priority[:1]))
	right := s.StatusBadge(task.Status) + "  " + s.Progress.Render(rollup.Bar(row.Rollup, 10)) + " " + row.Rollup.Short()
	titleWidth := max(width-lipgloss.Width(right)-lipgloss.Width(prio)-6, 10)
	titleLine := prio + " " + lipgloss.NewStyle().Width(titleWidth).Render(truncate(task.Title, titleWidth)) + " " + right

	var meta []string
	for _, tag := range task.Tags {
		meta = append(meta, s.Tag.Render("#"+tag))
	}
	if row.DueDate != "" {
		meta = append(meta, s.TitleMuted.Render("due "+row.DueDate))
	}
	metaLine := strings.Join(meta, " ")
	if metaLine == "" {
		metaLine = s.TitleMuted.Render("no tags")
	}

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		itemStyle.Width(width).Render(titleLine),
		itemStyle.Width(width).Render(metaLine),
	) + "\n"
}

func (v *TaskListView) renderHelp() string {
	if w := styles.ContentWidth(v.width); w > 0 && w < 60 {
		return helpLine(v.styles, "?", "help")
	}
	return helpLine(v.styles, "↵", "open", "s", "status", "n", "new", "/", "search", "f", "tag", "b", "board", "esc", "back", "q", "quit")
}

// renderHelpPopup renders key/description pairs in a centered box
func renderHelpPopup(s *styles.Styles, width, height int, pairs []string) string {
	lines := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, s.HelpKey.Render(fmt.Sprintf("%-7s", pairs[i]))+" "+pairs[i+1])
	}
	lines = append(lines, "", s.TitleMuted.Render("Press any key to close"))

	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		s.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
	return styles.CenterView(centered, width, height)
}
