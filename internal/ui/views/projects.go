package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/ui/keys"
	"github.com/tgienger/tally/internal/ui/styles"
)

// projectItem is a project row; a nil project is the "All tasks" entry
type projectItem struct {
	project *models.Project
}

func (i projectItem) Title() string {
	if i.project == nil {
		return "All tasks"
	}
	return i.project.Title
}

func (i projectItem) Description() string {
	if i.project == nil {
		return "Every task, with or without a project"
	}
	return i.project.Description
}

func (i projectItem) FilterValue() string { return i.Title() }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	titleStyle, descStyle := d.styles.ListItem, d.styles.ListItem
	if index == m.Index() {
		titleStyle, descStyle = d.styles.ListSelected, d.styles.ListSelected
	}
	descStyle = descStyle.Foreground(styles.Current.ForegroundDim)

	fmt.Fprintf(w, "%s\n%s", titleStyle.Width(width).Render(p.Title()), descStyle.Width(width).Render(p.Description()))
}

// ProjectListView lets the user pick the project whose tasks to show
type ProjectListView struct {
	session  Session
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	status   statusLine

	creating bool
	newName  textinput.Model
	newDesc  textinput.Model
	focusIdx int // 0=name, 1=desc, 2=confirm

	showHelpPopup bool
}

// NewProjectListView creates the project picker
func NewProjectListView(session Session) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 200

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		session:  session,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newDesc:  newDesc,
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

type projectsLoadedMsg struct {
	projects []models.Project
	err      error
}

func (v *ProjectListView) loadProjects() tea.Msg {
	projects, err := v.session.Tracker.Projects(v.session.Ctx)
	return projectsLoadedMsg{projects: projects, err: err}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		if msg.err != nil {
			v.status.set(mutationDoneMsg{err: msg.err})
			return v, nil
		}
		items := []list.Item{projectItem{}}
		for i := range msg.projects {
			items = append(items, projectItem{project: &msg.projects[i]})
		}
		v.list.SetItems(items)
		v.loaded = true
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.newName.Reset()
			v.newDesc.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, func() tea.Msg { return SelectedProject{Project: item.project} }
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.create()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 2 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.create()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

func (v *ProjectListView) create() tea.Cmd {
	name := strings.TrimSpace(v.newName.Value())
	if name == "" {
		return nil
	}
	project, err := v.session.Tracker.CreateProject(v.session.Ctx, name, strings.TrimSpace(v.newDesc.Value()))
	if err != nil {
		v.status.set(mutationDoneMsg{err: err})
		return nil
	}
	v.creating = false
	return func() tea.Msg { return SelectedProject{Project: project} }
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.creating {
		return v.renderCreateForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...") + "\n" + v.status.render(v.styles)
	}

	content := v.list.View() + "\n" + v.status.render(v.styles) + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle, descStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Project"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		btnStyle.Render(" Create "),
		"",
		v.status.render(s),
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	if w := styles.ContentWidth(v.width); w > 0 && w < 50 {
		return helpLine(v.styles, "?", "help")
	}
	return helpLine(v.styles, "↵", "select", "n", "new", "/", "filter", "q", "quit")
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keyboard Shortcuts"),
		"",
		s.HelpKey.Render("↵")+"      open project",
		s.HelpKey.Render("n")+"      new project",
		s.HelpKey.Render("/")+"      filter",
		s.HelpKey.Render("q")+"      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Box.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
