package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tally/internal/models"
)

// Theme is the palette every view draws from
type Theme struct {
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color
	Primary       lipgloss.Color
	Secondary     lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// TokyoNight is the default palette
var TokyoNight = Theme{
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),
	Primary:       lipgloss.Color("#7aa2f7"),
	Secondary:     lipgloss.Color("#bb9af7"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth caps the list and detail views; the board uses the full width
const MaxWidth = 100

// ContentWidth is the usable width for a terminal of the given width
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView centers content when the terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Center, lipgloss.Top, content)
}

// StatusColor is the accent used for a status badge or column header
func StatusColor(s models.Status) lipgloss.Color {
	switch s {
	case models.StatusInProgress:
		return Current.Info
	case models.StatusBlocked:
		return Current.Error
	case models.StatusCompleted:
		return Current.Success
	default:
		return Current.ForegroundDim
	}
}

// PriorityColor colors the priority marker
func PriorityColor(p models.Priority) lipgloss.Color {
	switch p {
	case models.PriorityHigh:
		return Current.Error
	case models.PriorityLow:
		return Current.ForegroundDim
	default:
		return Current.Warning
	}
}

// Styles holds the styles shared by the list, board and detail views
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	// board columns and cards
	ColumnHeader       lipgloss.Style
	ColumnHeaderActive lipgloss.Style
	Card               lipgloss.Style
	CardSelected       lipgloss.Style

	Box           lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	Input         lipgloss.Style
	InputFocused  lipgloss.Style

	// task fields
	Badge    lipgloss.Style
	Tag      lipgloss.Style
	Progress lipgloss.Style

	Help    lipgloss.Style
	HelpKey lipgloss.Style

	// status line after a mutation
	Notice lipgloss.Style
	Error  lipgloss.Style
}

// bordered is a rounded box that lights up when focused
func bordered(focused bool) lipgloss.Style {
	color := Current.Border
	if focused {
		color = Current.BorderFocus
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(color)
}

// NewStyles builds the styles from the current theme
func NewStyles() *Styles {
	t := Current
	fg := lipgloss.NewStyle().Foreground(t.Foreground)

	return &Styles{
		Title:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		TitleMuted: lipgloss.NewStyle().Foreground(t.ForegroundDim),

		ListItem:     fg.Padding(0, 2),
		ListSelected: lipgloss.NewStyle().Foreground(t.Primary).Background(t.Selection).Padding(0, 2).Bold(true),

		ColumnHeader:       lipgloss.NewStyle().Foreground(t.ForegroundDim).Bold(true),
		ColumnHeaderActive: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Card:               bordered(false).Padding(0, 1),
		CardSelected:       bordered(true).Padding(0, 1),

		Box:           bordered(false).Padding(0, 1),
		Button:        bordered(false).Foreground(t.Foreground).Padding(0, 2),
		ButtonFocused: bordered(true).Foreground(t.Primary).Padding(0, 2).Bold(true),
		Input:         bordered(false).Foreground(t.Foreground).Padding(0, 1),
		InputFocused:  bordered(true).Foreground(t.Foreground).Padding(0, 1),

		Badge:    lipgloss.NewStyle().Bold(true),
		Tag:      lipgloss.NewStyle().Foreground(t.Secondary).MarginRight(1),
		Progress: lipgloss.NewStyle().Foreground(t.Success),

		Help:    lipgloss.NewStyle().Foreground(t.ForegroundDim).Padding(1, 2),
		HelpKey: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),

		Notice: lipgloss.NewStyle().Foreground(t.Success).Padding(0, 2),
		Error:  lipgloss.NewStyle().Foreground(t.Error).Padding(0, 2),
	}
}

// StatusBadge renders a status label in its color
func (s *Styles) StatusBadge(st models.Status) string {
	return s.Badge.Foreground(StatusColor(st)).Render(st.Label())
}
