package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/rollup"
	"github.com/tgienger/tally/internal/surface"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// shortID is the prefix shown in listings; any unique prefix of 4+ chars resolves
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printList(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-8s  %-11s  %-6s  %-10s  %-8s  %s", "ID", "STATUS", "PRIO", "DUE", "SUBTASKS", "TITLE")))
	for _, row := range surface.List(tasks) {
		title := row.Title
		if len(row.Tags) > 0 {
			title += dimStyle.Render(" #" + strings.Join(row.Tags, " #"))
		}
		fmt.Fprintf(w, "%-8s  %-11s  %-6s  %-10s  %-8s  %s\n",
			shortID(row.ID), row.Status, row.Priority, row.DueDate, row.Rollup.Short(), title)
	}
}

func printBoard(w io.Writer, tasks []models.Task) {
	for _, col := range surface.Board(tasks) {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Cards))))
		for _, c := range col.Cards {
			fmt.Fprintf(w, "  %s  %s %s  %s\n", shortID(c.ID), c.Progress, c.Rollup.Short(), c.Title)
		}
	}
}

func printDetail(w io.Writer, task models.Task, entries []activity.Entry) {
	v := surface.Detail(task, entries)
	fmt.Fprintln(w, headerStyle.Render(task.Title))
	fmt.Fprintf(w, "ID:        %s\n", task.ID)
	fmt.Fprintf(w, "Status:    %s\n", v.Status)
	fmt.Fprintf(w, "Priority:  %s\n", v.Priority)
	if v.DueDate != "" {
		fmt.Fprintf(w, "Due:       %s\n", v.DueDate)
	}
	if len(task.Tags) > 0 {
		fmt.Fprintf(w, "Tags:      %s\n", strings.Join(task.Tags, ", "))
	}
	fmt.Fprintf(w, "Progress:  %s %s\n", rollup.Bar(v.Rollup, 10), v.RollupLabel)
	if task.Description != "" {
		fmt.Fprintf(w, "\n%s\n", task.Description)
	}

	if len(v.Subtasks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Subtasks"))
		for _, s := range v.Subtasks {
			check := "[ ]"
			if s.Done {
				check = "[x]"
			}
			fmt.Fprintf(w, "  %s %s  %-11s  %s\n", check, shortID(s.ID), s.Label, s.Title)
		}
	}

	if len(v.Collaborators) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Collaborators"))
		for _, c := range v.Collaborators {
			fmt.Fprintf(w, "  %s (%s)\n", c.UserID, c.Role)
		}
	}

	if len(v.Log) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Activity"))
		printLog(w, v.Log)
	}
}

func printLog(w io.Writer, lines []surface.LogLine) {
	for _, l := range lines {
		fmt.Fprintf(w, "  %s  %-10s %s  %s\n", dimStyle.Render(l.At), l.Editor, dimStyle.Render(string(l.Surface)), l.Text)
	}
}
