package models

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrPermissionDenied = errors.New("permission denied")
)

// TaskError describes a failed operation on a task or subtask
type TaskError struct {
	Op      string // Operation: "update_status", "delete_subtask", etc.
	ID      string // Optional: task or subtask id
	Message string // Human-readable context
	Err     error  // Underlying error
}

func (e *TaskError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg = msg + ": " + e.Err.Error()
		} else {
			msg = e.Err.Error()
		}
	}
	switch {
	case e.ID != "" && msg != "":
		return fmt.Sprintf("%s [%s]: %s", e.Op, e.ID, msg)
	case msg != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	default:
		return fmt.Sprintf("%s failed", e.Op)
	}
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
