package models

import "fmt"

// Rollup summarizes subtask completion for a parent task
type Rollup struct {
	Total     int
	Completed int
}

func (r Rollup) String() string {
	return fmt.Sprintf("%d/%d subtasks complete", r.Completed, r.Total)
}

// Short returns the compact "c/t" form used on cards
func (r Rollup) Short() string {
	return fmt.Sprintf("%d/%d", r.Completed, r.Total)
}

// Percent returns completion in the range 0..100; 0 when there are no subtasks
func (r Rollup) Percent() int {
	if r.Total == 0 {
		return 0
	}
	return r.Completed * 100 / r.Total
}

// Done reports whether there is at least one subtask and all are completed
func (r Rollup) Done() bool {
	return r.Total > 0 && r.Completed == r.Total
}
