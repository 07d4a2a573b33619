package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Todo", StatusTodo},
		{"to do", StatusTodo},
		{"TODO", StatusTodo},
		{"InProgress", StatusInProgress},
		{"in_progress", StatusInProgress},
		{"In Progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"blocked", StatusBlocked},
		{" Completed ", StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	for _, raw := range []string{"", "done", "Archived", "open"} {
		_, err := ParseStatus(raw)
		assert.True(t, errors.Is(err, ErrInvalidStatus), "ParseStatus(%q) = %v", raw, err)
	}
}

func TestStatus_Label(t *testing.T) {
	assert.Equal(t, "To Do", StatusTodo.Label())
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "Blocked", StatusBlocked.Label())
	assert.Equal(t, "Completed", StatusCompleted.Label())
}

func TestStatus_Column(t *testing.T) {
	tests := []struct {
		status Status
		want   int
	}{
		{StatusTodo, 0},
		{StatusInProgress, 1},
		{StatusBlocked, 2},
		{StatusCompleted, 3},
		{Status("unknown"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Column(); got != tt.want {
				t.Errorf("Status.Column() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_NextPrevWrap(t *testing.T) {
	assert.Equal(t, StatusInProgress, StatusTodo.Next())
	assert.Equal(t, StatusTodo, StatusCompleted.Next())
	assert.Equal(t, StatusCompleted, StatusTodo.Prev())
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		raw     string
		want    Priority
		wantErr bool
	}{
		{"1", PriorityLow, false},
		{"low", PriorityLow, false},
		{"5", PriorityMedium, false},
		{"Medium", PriorityMedium, false},
		{"10", PriorityHigh, false},
		{"HIGH", PriorityHigh, false},
		{"3", 0, true},
		{"urgent", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePriority(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", FormatDate(d))

	d, err = ParseDueDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDueDate("03/01/2026")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRollup(t *testing.T) {
	r := Rollup{Total: 3, Completed: 1}
	assert.Equal(t, "1/3 subtasks complete", r.String())
	assert.Equal(t, "1/3", r.Short())
	assert.Equal(t, 33, r.Percent())
	assert.False(t, r.Done())

	assert.Equal(t, "0/0 subtasks complete", Rollup{}.String())
	assert.Equal(t, 0, Rollup{}.Percent())
	assert.False(t, Rollup{}.Done())
	assert.True(t, Rollup{Total: 2, Completed: 2}.Done())
}

func TestRole(t *testing.T) {
	assert.True(t, RoleManager.CanDeleteSubtasks())
	assert.False(t, RoleStaff.CanDeleteSubtasks())
	assert.False(t, Role("guest").Valid())

	r, err := ParseRole("Manager")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, r)

	_, err = ParseSurface("sidebar")
	assert.ErrorIs(t, err, ErrValidation)
}
