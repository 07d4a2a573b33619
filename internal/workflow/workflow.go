// Package workflow validates status transitions for tasks and subtasks.
//
// The transition graph is complete: any status may move to any other,
// including Completed back to Todo. Only values outside the status enum are
// rejected.
package workflow

import (
	"fmt"

	"github.com/tgienger/tally/internal/models"
)

// Transition validates a move from current to requested and returns the
// normalized target. An error wraps models.ErrInvalidStatus and the caller
// must not apply the change.
func Transition(current, requested models.Status) (models.Status, error) {
	if !requested.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidStatus, string(requested))
	}
	if current != "" && !current.Valid() {
		return "", fmt.Errorf("%w: current status %q", models.ErrInvalidStatus, string(current))
	}
	return requested, nil
}

// TransitionString parses raw (wire value or display label) and validates it
// as a target for current.
func TransitionString(current models.Status, raw string) (models.Status, error) {
	target, err := models.ParseStatus(raw)
	if err != nil {
		return "", err
	}
	return Transition(current, target)
}

// IsNoop reports whether the transition leaves the status unchanged
func IsNoop(current, target models.Status) bool {
	return current == target
}
