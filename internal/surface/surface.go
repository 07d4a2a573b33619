// Package surface holds the read projections rendered by the list, board and
// detail views. Projections never mutate; all three derive their roll-up
// label from the same subtask set so they always agree.
package surface

import (
	"sort"

	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/rollup"
)

// RollupLabel is the completion text shared by every surface
func RollupLabel(t models.Task) string {
	return rollup.Compute(t.Subtasks).String()
}

// ListRow is one line of the list view
type ListRow struct {
	ID          string
	Title       string
	Status      string
	Priority    string
	DueDate     string
	Tags        []string
	Rollup      models.Rollup
	RollupLabel string
}

// List projects tasks into list rows, keeping the input order
func List(tasks []models.Task) []ListRow {
	rows := make([]ListRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, ListRow{
			ID:          t.ID,
			Title:       t.Title,
			Status:      t.Status.Label(),
			Priority:    t.Priority.String(),
			DueDate:     models.FormatDate(t.DueDate),
			Tags:        t.Tags,
			Rollup:      rollup.Compute(t.Subtasks),
			RollupLabel: RollupLabel(t),
		})
	}
	return rows
}

// Card is a task as shown on the board
type Card struct {
	ID          string
	Title       string
	Priority    models.Priority
	Rollup      models.Rollup
	RollupLabel string
	Progress    string
}

// Column is one board lane
type Column struct {
	Status models.Status
	Title  string
	Cards  []Card
}

// Board groups tasks into one column per status, in status order. Cards are
// sorted by priority descending, then creation time ascending.
func Board(tasks []models.Task) []Column {
	cols := make([]Column, len(models.Statuses))
	for i, s := range models.Statuses {
		cols[i] = Column{Status: s, Title: s.Label()}
	}

	sorted := make([]models.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	for _, t := range sorted {
		idx := t.Status.Column()
		r := rollup.Compute(t.Subtasks)
		cols[idx].Cards = append(cols[idx].Cards, Card{
			ID:          t.ID,
			Title:       t.Title,
			Priority:    t.Priority,
			Rollup:      r,
			RollupLabel: RollupLabel(t),
			Progress:    rollup.Bar(r, 10),
		})
	}
	return cols
}

// SubtaskRow is a subtask line in the detail view
type SubtaskRow struct {
	ID      string
	Title   string
	Status  models.Status
	Label   string
	DueDate string
	Done    bool
}

// LogLine is a rendered activity entry
type LogLine struct {
	At      string
	Editor  string
	Surface models.Surface
	Text    string
}

// DetailView is everything the detail view renders for one task
type DetailView struct {
	Task          models.Task
	Status        string
	Priority      string
	DueDate       string
	Rollup        models.Rollup
	RollupLabel   string
	Subtasks      []SubtaskRow
	Collaborators []models.Collaborator
	Log           []LogLine
}

// LogTimeLayout formats entry timestamps in the detail view
const LogTimeLayout = "2006-01-02 15:04:05"

// Detail projects a task and its activity entries. Entries are shown newest
// first whatever order they arrive in.
func Detail(t models.Task, entries []activity.Entry) DetailView {
	v := DetailView{
		Task:          t,
		Status:        t.Status.Label(),
		Priority:      t.Priority.String(),
		DueDate:       models.FormatDate(t.DueDate),
		Rollup:        rollup.Compute(t.Subtasks),
		RollupLabel:   RollupLabel(t),
		Collaborators: t.Collaborators,
	}
	for _, s := range t.Subtasks {
		v.Subtasks = append(v.Subtasks, SubtaskRow{
			ID:      s.ID,
			Title:   s.Title,
			Status:  s.Status,
			Label:   s.Status.Label(),
			DueDate: models.FormatDate(s.DueDate),
			Done:    s.Status == models.StatusCompleted,
		})
	}

	sorted := make([]activity.Entry, len(entries))
	copy(sorted, entries)
	activity.SortNewestFirst(sorted)
	for _, e := range sorted {
		v.Log = append(v.Log, LogLine{
			At:      e.At.Local().Format(LogTimeLayout),
			Editor:  e.Editor,
			Surface: e.Surface,
			Text:    e.Detail(),
		})
	}
	return v
}
