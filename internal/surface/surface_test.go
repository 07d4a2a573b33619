package surface

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/models"
)

var base = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func task(id string, status models.Status, prio models.Priority, age int, subs ...models.Status) models.Task {
	t := models.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    status,
		Priority:  prio,
		CreatedAt: base.Add(time.Duration(age) * time.Minute),
	}
	for i, s := range subs {
		t.Subtasks = append(t.Subtasks, models.Subtask{ID: id + string(rune('a'+i)), TaskID: id, Title: "sub", Status: s})
	}
	return t
}

func TestRollupLabelAgreesAcrossSurfaces(t *testing.T) {
	tk := task("1", models.StatusInProgress, models.PriorityMedium, 0,
		models.StatusTodo, models.StatusCompleted, models.StatusCompleted)
	// a stale cached roll-up must not leak into any projection
	tk.Rollup = models.Rollup{Total: 1, Completed: 0}

	rows := List([]models.Task{tk})
	board := Board([]models.Task{tk})
	detail := Detail(tk, nil)

	require.Len(t, rows, 1)
	card := board[1].Cards[0]
	assert.Equal(t, "2/3 subtasks complete", rows[0].RollupLabel)
	assert.Equal(t, rows[0].RollupLabel, card.RollupLabel)
	assert.Equal(t, rows[0].RollupLabel, detail.RollupLabel)
	assert.Equal(t, detail.Rollup, card.Rollup)
}

func TestBoard(t *testing.T) {
	tasks := []models.Task{
		task("low-old", models.StatusTodo, models.PriorityLow, 0),
		task("high-new", models.StatusTodo, models.PriorityHigh, 5),
		task("high-old", models.StatusTodo, models.PriorityHigh, 1),
		task("blocked", models.StatusBlocked, models.PriorityMedium, 2),
		task("done", models.StatusCompleted, models.PriorityMedium, 3, models.StatusCompleted),
	}

	cols := Board(tasks)
	require.Len(t, cols, 4)

	titles := []string{"To Do", "In Progress", "Blocked", "Completed"}
	for i, c := range cols {
		assert.Equal(t, titles[i], c.Title)
		assert.Equal(t, models.Statuses[i], c.Status)
	}

	var ids []string
	for _, c := range cols[0].Cards {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"high-old", "high-new", "low-old"}, ids)
	assert.Empty(t, cols[1].Cards)
	assert.Len(t, cols[2].Cards, 1)
	assert.Equal(t, "[##########]", cols[3].Cards[0].Progress)

	// input order is left alone
	assert.Equal(t, "low-old", tasks[0].ID)
}

func TestList(t *testing.T) {
	due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	tk := task("1", models.StatusBlocked, models.PriorityHigh, 0)
	tk.DueDate = &due
	tk.Tags = []string{"ops"}

	rows := List([]models.Task{tk, task("2", models.StatusTodo, models.PriorityLow, 1)})
	require.Len(t, rows, 2)
	assert.Equal(t, "Blocked", rows[0].Status)
	assert.Equal(t, "High", rows[0].Priority)
	assert.Equal(t, "2026-12-24", rows[0].DueDate)
	assert.Equal(t, []string{"ops"}, rows[0].Tags)
	assert.Equal(t, "0/0 subtasks complete", rows[1].RollupLabel)
}

func TestDetail(t *testing.T) {
	tk := task("1", models.StatusTodo, models.PriorityMedium, 0, models.StatusTodo, models.StatusCompleted)
	entries := []activity.Entry{
		{Kind: activity.KindTaskCreated, Subject: "task 1", Editor: "ana", At: base, Seq: 1},
		{Kind: activity.KindStatusChange, Field: "status", From: "Todo", To: "InProgress", Editor: "ana", Surface: models.SurfaceBoard, At: base.Add(time.Minute), Seq: 2},
		{Kind: activity.KindStatusChange, Field: "status", From: "InProgress", To: "Todo", Editor: "bo", Surface: models.SurfaceList, At: base.Add(time.Minute), Seq: 3},
	}

	v := Detail(tk, entries)
	assert.Equal(t, "1/2 subtasks complete", v.RollupLabel)
	require.Len(t, v.Subtasks, 2)
	assert.Equal(t, "To Do", v.Subtasks[0].Label)
	assert.True(t, v.Subtasks[1].Done)

	require.Len(t, v.Log, 3)
	assert.Equal(t, `Status changed from "In Progress" to "To Do"`, v.Log[0].Text)
	assert.Equal(t, "bo", v.Log[0].Editor)
	assert.Equal(t, models.SurfaceBoard, v.Log[1].Surface)
	assert.Equal(t, `Task "task 1" created`, v.Log[2].Text)
}
