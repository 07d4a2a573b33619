// Package activity records the append-only, newest-first history of every
// mutation applied to a task and its subtasks.
package activity

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tgienger/tally/internal/models"
)

// Kind is the type of an activity entry
type Kind string

const (
	KindTaskCreated       Kind = "task_created"
	KindStatusChange      Kind = "status_change"
	KindTitleChange       Kind = "title_change"
	KindDescriptionChange Kind = "description_change"
	KindPriorityChange    Kind = "priority_change"
	KindDueDateChange     Kind = "due_date_change"
	KindAssignmentChange  Kind = "assignment_change"
	KindTagChange         Kind = "tag_change"
	KindSubtaskCreated    Kind = "subtask_created"
	KindSubtaskDeleted    Kind = "subtask_deleted"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindTaskCreated, KindStatusChange, KindTitleChange, KindDescriptionChange,
		KindPriorityChange, KindDueDateChange, KindAssignmentChange, KindTagChange,
		KindSubtaskCreated, KindSubtaskDeleted:
		return true
	}
	return false
}

// Field returns the attribute a change kind is about, or "" for event kinds
func (k Kind) Field() string {
	switch k {
	case KindStatusChange:
		return "status"
	case KindTitleChange:
		return "title"
	case KindDescriptionChange:
		return "description"
	case KindPriorityChange:
		return "priority"
	case KindDueDateChange:
		return "due_date"
	case KindAssignmentChange:
		return "collaborator"
	case KindTagChange:
		return "tag"
	}
	return ""
}

// requiresBoth reports whether the kind must carry both a previous and a new value
func (k Kind) requiresBoth() bool {
	return k == KindStatusChange || k == KindTitleChange || k == KindPriorityChange
}

// Entry is one immutable activity log record. From and To hold raw wire
// values; Detail renders them for display.
type Entry struct {
	ID        string
	TaskID    string
	SubtaskID string // set when the change targeted a subtask
	Kind      Kind
	Editor    string
	Field     string
	From      string
	To        string
	Subject   string // subtask title, collaborator id or tag the entry is about
	Note      string
	Surface   models.Surface
	At        time.Time
	Seq       int64 // insertion order, assigned by the store
}

// Detail returns the human-readable description of the entry. Change kinds
// always name both the previous and the new value.
func (e Entry) Detail() string {
	from, to := displayValue(e.Field, e.From), displayValue(e.Field, e.To)
	switch e.Kind {
	case KindTaskCreated:
		return fmt.Sprintf("Task %q created", e.Subject)
	case KindStatusChange:
		if e.SubtaskID != "" {
			return fmt.Sprintf("Subtask %q status changed from %q to %q", e.Subject, from, to)
		}
		return fmt.Sprintf("Status changed from %q to %q", from, to)
	case KindTitleChange:
		return fmt.Sprintf("Title changed from %q to %q", from, to)
	case KindDescriptionChange:
		return fmt.Sprintf("Description changed from %q to %q", from, to)
	case KindPriorityChange:
		return fmt.Sprintf("Priority changed from %q to %q", from, to)
	case KindDueDateChange:
		return fmt.Sprintf("Due date changed from %q to %q", from, to)
	case KindAssignmentChange:
		switch {
		case e.From == "":
			return fmt.Sprintf("Collaborator %q added as %s", e.Subject, e.To)
		case e.To == "":
			return fmt.Sprintf("Collaborator %q removed (was %s)", e.Subject, e.From)
		default:
			return fmt.Sprintf("Collaborator %q role changed from %q to %q", e.Subject, e.From, e.To)
		}
	case KindTagChange:
		if e.From == "" {
			return fmt.Sprintf("Tag %q added", e.Subject)
		}
		return fmt.Sprintf("Tag %q removed", e.Subject)
	case KindSubtaskCreated:
		return fmt.Sprintf("Subtask %q created", e.Subject)
	case KindSubtaskDeleted:
		return fmt.Sprintf("Subtask %q deleted", e.Subject)
	}
	return e.Note
}

func displayValue(field, raw string) string {
	switch field {
	case "status":
		return models.Status(raw).Label()
	case "priority":
		if n, err := strconv.Atoi(raw); err == nil {
			return models.Priority(n).String()
		}
	case "description", "due_date":
		if raw == "" {
			return "none"
		}
	}
	return raw
}

// SortNewestFirst orders entries by timestamp descending, breaking ties by
// insertion order descending.
func SortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].At.Equal(entries[j].At) {
			return entries[i].At.After(entries[j].At)
		}
		return entries[i].Seq > entries[j].Seq
	})
}
