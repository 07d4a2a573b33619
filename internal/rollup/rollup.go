// Package rollup derives parent-task completion counters from subtasks.
package rollup

import (
	"strings"

	"github.com/tgienger/tally/internal/models"
)

// Compute counts subtasks and completed subtasks. It is recomputed from the
// full collection on every call and never patched incrementally.
func Compute(subtasks []models.Subtask) models.Rollup {
	r := models.Rollup{Total: len(subtasks)}
	for _, s := range subtasks {
		if s.Status == models.StatusCompleted {
			r.Completed++
		}
	}
	return r
}

// Apply recomputes the roll-up on t from its loaded subtasks
func Apply(t *models.Task) {
	t.Rollup = Compute(t.Subtasks)
}

// ByStatus counts subtasks per status
func ByStatus(subtasks []models.Subtask) map[models.Status]int {
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, s := range subtasks {
		counts[s.Status]++
	}
	return counts
}

// Bar renders a fixed-width progress bar such as "[###-------]"
func Bar(r models.Rollup, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if r.Total > 0 {
		filled = r.Completed * width / r.Total
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
