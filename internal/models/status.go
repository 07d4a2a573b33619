package models

import (
	"fmt"
	"strings"
)

// Status represents the workflow status of a task or subtask
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "InProgress"
	StatusBlocked    Status = "Blocked"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every status in kanban column order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusBlocked, StatusCompleted}

// Valid reports whether s is one of the four defined values
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusCompleted:
		return true
	default:
		return false
	}
}

// Label returns the display label
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusBlocked:
		return "Blocked"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// Column returns the kanban column index for this status
func (s Status) Column() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusBlocked:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 0
	}
}

// Next returns the following status in column order, wrapping around
func (s Status) Next() Status {
	return Statuses[(s.Column()+1)%len(Statuses)]
}

// Prev returns the preceding status in column order, wrapping around
func (s Status) Prev() Status {
	return Statuses[(s.Column()+len(Statuses)-1)%len(Statuses)]
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes a wire value or display label into a Status.
// Case, spaces, hyphens and underscores are ignored.
func ParseStatus(raw string) (Status, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(raw)))
	switch key {
	case "todo":
		return StatusTodo, nil
	case "inprogress":
		return StatusInProgress, nil
	case "blocked":
		return StatusBlocked, nil
	case "completed":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}
