package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/rollup"
	"github.com/tgienger/tally/internal/surface"
	"github.com/tgienger/tally/internal/tracker"
	"github.com/tgienger/tally/internal/ui/keys"
	"github.com/tgienger/tally/internal/ui/styles"
)

type detailMode int

const (
	detailNormal detailMode = iota
	detailAddSubtask
	detailEdit
	detailAddCollab
	detailConfirmDelete
)

type detailLoadedMsg struct {
	task    *models.Task
	entries []activity.Entry
	err     error
}

func (detailLoadedMsg) Target() models.Surface { return models.SurfaceDetail }

// DetailView shows one task with its subtasks, collaborators and activity log
type DetailView struct {
	session Session
	taskID  string
	task    *models.Task
	view    surface.DetailView
	styles  *styles.Styles
	keys    keys.KeyMap
	status  statusLine

	width  int
	height int

	cursor int // selected subtask
	mode   detailMode

	input     textinput.Model // subtask title or collaborator
	editTitle textinput.Model
	editDesc  textarea.Model
	editFocus int // 0=title, 1=description

	showHelpPopup bool
}

// NewDetailView creates the detail surface for a task
func NewDetailView(session Session, taskID string) *DetailView {
	input := textinput.New()
	input.CharLimit = 200

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	// roles that cannot delete subtasks never see the control
	km := keys.DefaultKeyMap()
	km.Delete.SetEnabled(session.Actor.Role.CanDeleteSubtasks())

	return &DetailView{
		session:   session,
		taskID:    taskID,
		styles:    styles.NewStyles(),
		keys:      km,
		input:     input,
		editTitle: editTitle,
		editDesc:  editDesc,
	}
}

// TaskID returns the id of the task being shown
func (v *DetailView) TaskID() string { return v.taskID }

func (v *DetailView) Init() tea.Cmd {
	return v.reload()
}

func (v *DetailView) reload() tea.Cmd {
	s, id := v.session, v.taskID
	return func() tea.Msg {
		task, entries, err := s.Tracker.TaskDetail(s.Ctx, id)
		return detailLoadedMsg{task: task, entries: entries, err: err}
	}
}

func (v *DetailView) selected() (surface.SubtaskRow, bool) {
	if v.cursor < 0 || v.cursor >= len(v.view.Subtasks) {
		return surface.SubtaskRow{}, false
	}
	return v.view.Subtasks[v.cursor], true
}

func (v *DetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.editDesc.SetWidth(clamp(styles.ContentWidth(msg.Width)-8, 20, 80))
		return v, nil

	case detailLoadedMsg:
		if msg.err != nil {
			v.status.set(mutationDoneMsg{err: msg.err})
			return v, nil
		}
		v.task = msg.task
		v.view = surface.Detail(*msg.task, msg.entries)
		if v.cursor >= len(v.view.Subtasks) {
			v.cursor = max(0, len(v.view.Subtasks)-1)
		}
		return v, nil

	case ChangedMsg:
		if msg.Change.TaskID != v.taskID {
			return v, nil
		}
		return v, v.reload()

	case mutationDoneMsg:
		v.status.set(msg)
		return v, v.reload()

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		switch v.mode {
		case detailAddSubtask, detailAddCollab:
			return v.updateInput(msg)
		case detailEdit:
			return v.updateEdit(msg)
		case detailConfirmDelete:
			return v.updateConfirm(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *DetailView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := v.session
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return CloseTask{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.view.Subtasks)-1 {
			v.cursor++
		}

	case key.Matches(msg, v.keys.NextStatus), key.Matches(msg, v.keys.PrevStatus):
		row, ok := v.selected()
		if !ok {
			return v, nil
		}
		to := row.Status.Next()
		if key.Matches(msg, v.keys.PrevStatus) {
			to = row.Status.Prev()
		}
		return v, mutate(models.SurfaceDetail, fmt.Sprintf("%q → %s", row.Title, to.Label()), func() error {
			_, err := s.Tracker.UpdateStatus(s.Ctx, row.ID, to, s.Actor, models.SurfaceDetail)
			return err
		})

	case key.Matches(msg, v.keys.TaskStatus):
		if v.task == nil {
			return v, nil
		}
		id, to := v.task.ID, v.task.Status.Next()
		return v, mutate(models.SurfaceDetail, "Task → "+to.Label(), func() error {
			_, err := s.Tracker.UpdateStatus(s.Ctx, id, to, s.Actor, models.SurfaceDetail)
			return err
		})

	case key.Matches(msg, v.keys.New):
		v.mode = detailAddSubtask
		v.input.Placeholder = "Subtask title"
		v.input.Reset()
		v.input.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Collab):
		v.mode = detailAddCollab
		v.input.Placeholder = "user or user:viewer"
		v.input.Reset()
		v.input.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if v.task == nil {
			return v, nil
		}
		v.mode = detailEdit
		v.editFocus = 0
		v.editTitle.SetValue(v.task.Title)
		v.editDesc.SetValue(v.task.Description)
		v.updateEditFocus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if _, ok := v.selected(); ok {
			v.mode = detailConfirmDelete
		}

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return v, nil
}

func (v *DetailView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = detailNormal
		v.input.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		value := strings.TrimSpace(v.input.Value())
		mode := v.mode
		v.mode = detailNormal
		v.input.Blur()
		if value == "" {
			return v, nil
		}
		if mode == detailAddSubtask {
			return v, v.addSubtask(value)
		}
		return v, v.addCollaborator(value)
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *DetailView) addSubtask(title string) tea.Cmd {
	s, id := v.session, v.taskID
	return mutate(models.SurfaceDetail, fmt.Sprintf("Added subtask %q", title), func() error {
		_, err := s.Tracker.CreateSubtask(s.Ctx, id, tracker.SubtaskInput{Title: title}, s.Actor, models.SurfaceDetail)
		return err
	})
}

// addCollaborator parses "user" or "user:role"
func (v *DetailView) addCollaborator(value string) tea.Cmd {
	user, rawRole, _ := strings.Cut(value, ":")
	role := models.CollaboratorEditor
	if rawRole != "" {
		r, err := models.ParseCollaboratorRole(rawRole)
		if err != nil {
			v.status.set(mutationDoneMsg{err: err})
			return nil
		}
		role = r
	}
	user = strings.TrimSpace(user)
	s, id := v.session, v.taskID
	return mutate(models.SurfaceDetail, fmt.Sprintf("Added %s as %s", user, role), func() error {
		_, err := s.Tracker.AddCollaborator(s.Ctx, id, user, role, s.Actor, models.SurfaceDetail)
		return err
	})
}

func (v *DetailView) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = detailNormal
		v.editTitle.Blur()
		v.editDesc.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveEdit()

	case key.Matches(msg, v.keys.Tab):
		v.editFocus = (v.editFocus + 1) % 2
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter) && v.editFocus == 0:
		return v, v.saveEdit()
	}

	var cmd tea.Cmd
	if v.editFocus == 0 {
		v.editTitle, cmd = v.editTitle.Update(msg)
	} else {
		v.editDesc, cmd = v.editDesc.Update(msg)
	}
	return v, cmd
}

func (v *DetailView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	if v.editFocus == 0 {
		v.editTitle.Focus()
	} else {
		v.editDesc.Focus()
	}
}

// saveEdit sends only the fields that differ from the loaded task
func (v *DetailView) saveEdit() tea.Cmd {
	v.mode = detailNormal
	v.editTitle.Blur()
	v.editDesc.Blur()
	if v.task == nil {
		return nil
	}

	var patch tracker.FieldsPatch
	if title := strings.TrimSpace(v.editTitle.Value()); title != v.task.Title {
		patch.Title = &title
	}
	if desc := strings.TrimSpace(v.editDesc.Value()); desc != v.task.Description {
		patch.Description = &desc
	}
	if patch.Title == nil && patch.Description == nil {
		return nil
	}

	s, id := v.session, v.taskID
	return mutate(models.SurfaceDetail, "Saved", func() error {
		_, err := s.Tracker.UpdateFields(s.Ctx, id, patch, s.Actor, models.SurfaceDetail)
		return err
	})
}

func (v *DetailView) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.mode = detailNormal
	row, ok := v.selected()
	if !ok || (msg.String() != "y" && msg.String() != "Y") {
		return v, nil
	}
	s := v.session
	return v, mutate(models.SurfaceDetail, fmt.Sprintf("Deleted subtask %q", row.Title), func() error {
		_, err := s.Tracker.DeleteSubtask(s.Ctx, row.ID, s.Actor, models.SurfaceDetail)
		return err
	})
}

// View renders the detail view
func (v *DetailView) View() string {
	s := v.styles
	if v.showHelpPopup {
		pairs := []string{
			"↑/↓", "select subtask",
			"s / S", "subtask status forward / back",
			"t", "task status",
			"n", "new subtask",
		}
		if v.keys.Delete.Enabled() {
			pairs = append(pairs, "d", "delete subtask")
		}
		pairs = append(pairs,
			"e", "edit title and description",
			"c", "add collaborator",
			"esc", "back",
			"q", "quit",
		)
		return renderHelpPopup(s, v.width, v.height, pairs)
	}
	if v.task == nil {
		return s.TitleMuted.Render("Loading...") + "\n" + v.status.render(s)
	}

	width := styles.ContentWidth(v.width)
	if width == 0 {
		width = styles.MaxWidth
	}
	if v.mode == detailEdit {
		return styles.CenterView(v.renderEditForm(width), v.width, v.height)
	}

	d := v.view
	parts := []string{
		s.Title.Render(truncate(d.Task.Title, width-4)),
		s.StatusBadge(d.Task.Status) + "  " +
			lipgloss.NewStyle().Foreground(styles.PriorityColor(d.Task.Priority)).Render(d.Priority) +
			s.TitleMuted.Render("  due "+orDash(d.DueDate)),
		s.Progress.Render(rollup.Bar(d.Rollup, 20)) + " " + d.RollupLabel,
	}
	if d.Task.Description != "" {
		parts = append(parts, "", lipgloss.NewStyle().Width(width-4).Render(d.Task.Description))
	}
	if len(d.Task.Tags) > 0 {
		var tags []string
		for _, t := range d.Task.Tags {
			tags = append(tags, s.Tag.Render("#"+t))
		}
		parts = append(parts, strings.Join(tags, ""))
	}

	parts = append(parts, "", s.ColumnHeader.Render("Subtasks"))
	if len(d.Subtasks) == 0 {
		parts = append(parts, s.TitleMuted.Render("  none"))
	}
	for i, row := range d.Subtasks {
		check := "[ ]"
		if row.Done {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %-12s %s", check, row.Label, truncate(row.Title, width-24))
		if row.DueDate != "" {
			line += s.TitleMuted.Render("  " + row.DueDate)
		}
		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}
		parts = append(parts, style.Render(line))
	}

	if len(d.Collaborators) > 0 {
		parts = append(parts, "", s.ColumnHeader.Render("Collaborators"))
		for _, c := range d.Collaborators {
			parts = append(parts, fmt.Sprintf("  %s %s", c.UserID, s.TitleMuted.Render("("+string(c.Role)+")")))
		}
	}

	switch v.mode {
	case detailAddSubtask, detailAddCollab:
		parts = append(parts, "", s.InputFocused.Width(clamp(width-6, 20, 60)).Render(v.input.View()))
	case detailConfirmDelete:
		if row, ok := v.selected(); ok {
			parts = append(parts, "", s.Error.Render(fmt.Sprintf("Delete subtask %q? (y/n)", row.Title)))
		}
	}

	parts = append(parts, "", s.ColumnHeader.Render("Activity"))
	used := lipgloss.Height(lipgloss.JoinVertical(lipgloss.Left, parts...)) + 4
	room := len(d.Log)
	if v.height > 0 {
		room = max(v.height-used, 1)
	}
	for i, line := range d.Log {
		if i >= room {
			parts = append(parts, s.TitleMuted.Render(fmt.Sprintf("  … %d more", len(d.Log)-i)))
			break
		}
		parts = append(parts, s.TitleMuted.Render("  "+line.At+"  "+line.Editor+"  "+string(line.Surface)+"  ")+line.Text)
	}

	parts = append(parts, v.status.render(s), v.renderHelp(width))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}

func (v *DetailView) renderEditForm(width int) string {
	s := v.styles
	titleStyle, descStyle := s.Input, s.Input
	if v.editFocus == 0 {
		titleStyle = s.InputFocused
	} else {
		descStyle = s.InputFocused
	}
	inputWidth := clamp(width-6, 20, 80)
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Edit Task"),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.editDesc.View()),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)
}

func (v *DetailView) renderHelp(width int) string {
	if width < 60 {
		return helpLine(v.styles, "?", "help")
	}
	pairs := []string{"s/S", "subtask", "t", "task", "n", "add"}
	if v.keys.Delete.Enabled() {
		pairs = append(pairs, "d", "delete")
	}
	pairs = append(pairs, "e", "edit", "c", "collab", "esc", "back")
	return helpLine(v.styles, pairs...)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
