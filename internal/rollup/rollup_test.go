package rollup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tgienger/tally/internal/models"
)

func subtasks(statuses ...models.Status) []models.Subtask {
	out := make([]models.Subtask, len(statuses))
	for i, s := range statuses {
		out[i] = models.Subtask{ID: string(rune('a' + i)), Status: s}
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Subtask
		want models.Rollup
	}{
		{"empty", nil, models.Rollup{Total: 0, Completed: 0}},
		{"none complete", subtasks(models.StatusTodo, models.StatusBlocked), models.Rollup{Total: 2}},
		{"mixed", subtasks(models.StatusTodo, models.StatusTodo, models.StatusCompleted), models.Rollup{Total: 3, Completed: 1}},
		{"all complete", subtasks(models.StatusCompleted, models.StatusCompleted), models.Rollup{Total: 2, Completed: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.in))
		})
	}
}

func TestCompute_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := rng.Intn(20)
		in := make([]models.Subtask, n)
		for j := range in {
			in[j].Status = models.Statuses[rng.Intn(len(models.Statuses))]
		}
		got := Compute(in)
		assert.Equal(t, n, got.Total)
		assert.LessOrEqual(t, got.Completed, got.Total)
	}
}

func TestApply(t *testing.T) {
	task := &models.Task{Subtasks: subtasks(models.StatusCompleted, models.StatusTodo)}
	task.Rollup = models.Rollup{Total: 9, Completed: 9}
	Apply(task)
	assert.Equal(t, "1/2 subtasks complete", task.Rollup.String())
}

func TestByStatus(t *testing.T) {
	got := ByStatus(subtasks(models.StatusTodo, models.StatusTodo, models.StatusBlocked))
	assert.Equal(t, 2, got[models.StatusTodo])
	assert.Equal(t, 1, got[models.StatusBlocked])
	assert.Equal(t, 0, got[models.StatusCompleted])
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[#####-----]", Bar(models.Rollup{Total: 2, Completed: 1}, 10))
	assert.Equal(t, "[----]", Bar(models.Rollup{}, 4))
	assert.Equal(t, "", Bar(models.Rollup{Total: 1}, 0))
}
