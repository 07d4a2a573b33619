package models

import (
	"sort"
	"time"
)

// Project groups tasks
type Project struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag is a label that can be applied to tasks
type Tag struct {
	Name      string
	Color     string
	CreatedAt time.Time
}

// Collaborator is a user associated with a task
type Collaborator struct {
	UserID  string
	Role    CollaboratorRole
	AddedAt time.Time
}

// Subtask is owned by exactly one parent task
type Subtask struct {
	ID        string
	TaskID    string
	Title     string
	Notes     string
	Status    Status
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Task represents a single task with its owned subtasks
type Task struct {
	ID            string
	ProjectID     *string // nil for standalone tasks
	Title         string
	Description   string
	Status        Status
	Priority      Priority
	DueDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Tags          []string       // sorted, unique
	Subtasks      []Subtask      // populated when loading the aggregate
	Collaborators []Collaborator // populated when loading the aggregate
	Rollup        Rollup         // derived from Subtasks, never stored
}

// HasTag reports whether the task carries the given tag
func (t *Task) HasTag(name string) bool {
	i := sort.SearchStrings(t.Tags, name)
	return i < len(t.Tags) && t.Tags[i] == name
}

// Subtask returns the owned subtask with the given id
func (t *Task) Subtask(id string) (*Subtask, bool) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i], true
		}
	}
	return nil, false
}

// Collaborator returns the collaborator entry for userID
func (t *Task) Collaborator(userID string) (*Collaborator, bool) {
	for i := range t.Collaborators {
		if t.Collaborators[i].UserID == userID {
			return &t.Collaborators[i], true
		}
	}
	return nil, false
}
