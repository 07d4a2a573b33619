package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/surface"
	"github.com/tgienger/tally/internal/ui/keys"
	"github.com/tgienger/tally/internal/ui/styles"
)

// BoardView is the kanban surface: one column per status
type BoardView struct {
	session Session
	query   taskQuery
	columns []surface.Column
	tags    []models.Tag
	styles  *styles.Styles
	keys    keys.KeyMap
	status  statusLine

	width  int
	height int

	col int
	row int

	creating bool
	newTitle textinput.Model

	showHelpPopup bool
}

// NewBoardView creates the board surface for a project (nil for all tasks)
func NewBoardView(session Session, project *models.Project) *BoardView {
	newTitle := textinput.New()
	newTitle.Placeholder = "Task title"
	newTitle.CharLimit = 200

	return &BoardView{
		session:  session,
		query:    taskQuery{project: project},
		columns:  surface.Board(nil),
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		newTitle: newTitle,
	}
}

// Init initializes the view
func (v *BoardView) Init() tea.Cmd {
	return loadTasks(v.session, v.query, models.SurfaceBoard)
}

func (v *BoardView) reload() tea.Cmd {
	return loadTasks(v.session, v.query, models.SurfaceBoard)
}

// Selected returns the card under the cursor
func (v *BoardView) Selected() (surface.Card, bool) {
	cards := v.columns[v.col].Cards
	if v.row < 0 || v.row >= len(cards) {
		return surface.Card{}, false
	}
	return cards[v.row], true
}

// Update handles messages
func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		v.columns = surface.Board(msg.tasks)
		v.tags = msg.tags
		v.clampCursor()
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
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *BoardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Board):
		return v, func() tea.Msg { return ToggleLayout{} }

	case key.Matches(msg, v.keys.Left):
		if v.col > 0 {
			v.col--
			v.clampCursor()
		}

	case key.Matches(msg, v.keys.Right):
		if v.col < len(v.columns)-1 {
			v.col++
			v.clampCursor()
		}

	case key.Matches(msg, v.keys.Up):
		if v.row > 0 {
			v.row--
		}

	case key.Matches(msg, v.keys.Down):
		if v.row < len(v.columns[v.col].Cards)-1 {
			v.row++
		}

	case key.Matches(msg, v.keys.Enter):
		if c, ok := v.Selected(); ok {
			return v, func() tea.Msg { return OpenTask{TaskID: c.ID} }
		}

	case key.Matches(msg, v.keys.NextStatus), key.Matches(msg, v.keys.PrevStatus):
		card, ok := v.Selected()
		if !ok {
			return v, nil
		}
		from := v.columns[v.col].Status
		to := from.Next()
		if key.Matches(msg, v.keys.PrevStatus) {
			to = from.Prev()
		}
		// follow the card into its new column
		v.col = to.Column()
		v.row = len(v.columns[v.col].Cards)
		return v, v.move(card, to)

	case key.Matches(msg, v.keys.New):
		v.creating = true
		v.newTitle.Reset()
		v.newTitle.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.query.tag = nextTag(v.query.tag, v.tags)
		v.row = 0
		return v, v.reload()

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return v, nil
}

// move is the board's replacement for dragging a card between columns
func (v *BoardView) move(card surface.Card, to models.Status) tea.Cmd {
	s := v.session
	return mutate(models.SurfaceBoard, fmt.Sprintf("%q → %s", card.Title, to.Label()), func() error {
		_, err := s.Tracker.UpdateStatus(s.Ctx, card.ID, to, s.Actor, models.SurfaceBoard)
		return err
	})
}

func (v *BoardView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
		return v, createTask(v.session, v.query, title, v.columns[v.col].Status, models.SurfaceBoard)
	}
	var cmd tea.Cmd
	v.newTitle, cmd = v.newTitle.Update(msg)
	return v, cmd
}

func (v *BoardView) clampCursor() {
	n := len(v.columns[v.col].Cards)
	if v.row >= n {
		v.row = max(0, n-1)
	}
}

// View renders the board
func (v *BoardView) View() string {
	s := v.styles
	if v.showHelpPopup {
		return renderHelpPopup(s, v.width, v.height, []string{
			"←/→", "change column",
			"↑/↓", "change card",
			"s / S", "move card right / left",
			"↵", "open detail",
			"n", "new task in column",
			"f", "cycle tag filter",
			"b", "switch to list",
			"esc", "projects",
			"q", "quit",
		})
	}

	title := s.Title.Render(v.query.title()) + s.TitleMuted.Render("  board")
	if v.query.tag != "" {
		title += s.Tag.Render("  #" + v.query.tag)
	}

	width := max(v.width, 40)
	colWidth := width / len(v.columns)
	colHeight := max(v.height-8, 5)

	var cols []string
	for i, col := range v.columns {
		cols = append(cols, lipgloss.NewStyle().Width(colWidth).Height(colHeight).
			Render(v.renderColumn(col, i == v.col, colWidth)))
	}

	parts := []string{title, lipgloss.JoinHorizontal(lipgloss.Top, cols...)}
	if v.creating {
		parts = append(parts, s.InputFocused.Width(clamp(width-6, 20, 60)).Render(v.newTitle.View()))
	}
	parts = append(parts, v.status.render(s), v.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v *BoardView) renderColumn(col surface.Column, active bool, width int) string {
	s := v.styles
	headerStyle := s.ColumnHeader.Foreground(styles.StatusColor(col.Status))
	if active {
		headerStyle = s.ColumnHeaderActive
	}
	headerText := fmt.Sprintf("─ %s (%d) ", col.Title, len(col.Cards))
	if rest := width - lipgloss.Width(headerText) - 2; rest > 0 {
		headerText += strings.Repeat("─", rest)
	}
	header := headerStyle.Render(headerText)

	cardWidth := max(width-4, 10)
	var cards []string
	for i, c := range col.Cards {
		style := s.Card
		if active && i == v.row {
			style = s.CardSelected
		}
		prio := lipgloss.NewStyle().Foreground(styles.PriorityColor(c.Priority)).Render(c.Priority.String())
		body := lipgloss.JoinVertical(lipgloss.Left,
			truncate(c.Title, cardWidth-2),
			prio+"  "+s.Progress.Render(c.Progress)+" "+c.Rollup.Short(),
		)
		cards = append(cards, style.Width(cardWidth).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, cards...)...)
}

func (v *BoardView) renderHelp() string {
	if v.width > 0 && v.width < 60 {
		return helpLine(v.styles, "?", "help")
	}
	return helpLine(v.styles, "←→", "column", "s/S", "move", "↵", "open", "n", "new", "f", "tag", "b", "list", "esc", "back", "q", "quit")
}
