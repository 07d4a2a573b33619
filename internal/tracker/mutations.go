package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/db"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/rollup"
	"github.com/tgienger/tally/internal/workflow"
)

// TaskInput describes a new task
type TaskInput struct {
	ProjectID   *string
	Title       string
	Description string
	Status      models.Status   // defaults to Todo
	Priority    models.Priority // defaults to Medium
	DueDate     string          // YYYY-MM-DD, optional
	Tags        []string
}

// SubtaskInput describes a new subtask
type SubtaskInput struct {
	Title   string
	Notes   string
	DueDate string        // YYYY-MM-DD, optional
	Status  models.Status // defaults to Todo
}

// FieldsPatch is a partial task update; nil fields are left unchanged.
// An empty DueDate clears the due date.
type FieldsPatch struct {
	Title       *string
	Description *string
	Priority    *models.Priority
	DueDate     *string
}

// StatusResult is returned by UpdateStatus. Subtask is set when the id
// referred to a subtask; Task is always the parent with a fresh roll-up.
type StatusResult struct {
	Task    *models.Task
	Subtask *models.Subtask
}

// loadTask reads the aggregate inside tx and recomputes its roll-up
func loadTask(ctx context.Context, tx *db.Tx, id string) (*models.Task, error) {
	task, err := tx.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	rollup.Apply(task)
	return task, nil
}

// CreateTask creates a standalone or project task
func (t *Tracker) CreateTask(ctx context.Context, in TaskInput, actor models.Actor, surface models.Surface) (*models.Task, error) {
	const op = "create_task"
	if err := checkCaller(op, "", actor, surface); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid(op, "", "title is required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusTodo
	}
	status, err := workflow.Transition("", status)
	if err != nil {
		return nil, fail(op, "", err)
	}
	priority := in.Priority
	if priority == 0 {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalid(op, "", fmt.Sprintf("unknown priority %d", priority))
	}
	due, err := models.ParseDueDate(in.DueDate)
	if err != nil {
		return nil, fail(op, "", err)
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, fail(op, "", err)
	}

	now := t.stamp()
	task := &models.Task{
		ID:          t.newID(),
		ProjectID:   in.ProjectID,
		Title:       title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     due,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var created *models.Task
	err = t.mutate(ctx, task.ID, func(tx *db.Tx) ([]Change, error) {
		if task.ProjectID != nil {
			if _, err := tx.GetProject(ctx, *task.ProjectID); err != nil {
				return nil, err
			}
		}
		if err := tx.InsertTask(ctx, task); err != nil {
			return nil, err
		}
		c, err := t.record(ctx, tx, task.ID, activity.Draft{
			Kind:    activity.KindTaskCreated,
			Editor:  actor.UserID,
			Subject: task.Title,
			Surface: surface,
		})
		if err != nil {
			return nil, err
		}
		created, err = loadTask(ctx, tx, task.ID)
		return []Change{c}, err
	})
	if err != nil {
		t.logger.Warn("create task failed", "err", err)
		return nil, fail(op, task.ID, err)
	}
	t.logger.Info("task created", "task", task.ID, "surface", surface, "editor", actor.UserID)
	return created, nil
}

// UpdateStatus moves a task or subtask to status. For subtasks the parent's
// roll-up is recomputed and the entry is logged on the parent.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, status models.Status, actor models.Actor, surface models.Surface) (*StatusResult, error) {
	const op = "update_status"
	if err := checkCaller(op, id, actor, surface); err != nil {
		return nil, err
	}
	if _, err := workflow.Transition("", status); err != nil {
		return nil, fail(op, id, err)
	}

	taskID, subtaskID, err := t.ResolveTask(ctx, id)
	if err != nil {
		return nil, fail(op, id, err)
	}

	var (
		result   StatusResult
		from, to models.Status
	)
	err = t.mutate(ctx, taskID, func(tx *db.Tx) ([]Change, error) {
		var changes []Change
		now := t.stamp()

		if subtaskID != "" {
			st, err := tx.GetSubtask(ctx, subtaskID)
			if err != nil {
				return nil, err
			}
			from = st.Status
			if to, err = workflow.Transition(st.Status, status); err != nil {
				return nil, err
			}
			if !workflow.IsNoop(from, to) {
				if err := tx.UpdateSubtaskStatus(ctx, subtaskID, to, now); err != nil {
					return nil, err
				}
				if err := tx.TouchTask(ctx, taskID, now); err != nil {
					return nil, err
				}
				c, err := t.record(ctx, tx, taskID, activity.Draft{
					Kind:      activity.KindStatusChange,
					SubtaskID: subtaskID,
					Editor:    actor.UserID,
					From:      string(from),
					To:        string(to),
					Subject:   st.Title,
					Surface:   surface,
				})
				if err != nil {
					return nil, err
				}
				changes = append(changes, c)
			}
		} else {
			task, err := tx.GetTask(ctx, taskID)
			if err != nil {
				return nil, err
			}
			from = task.Status
			if to, err = workflow.Transition(task.Status, status); err != nil {
				return nil, err
			}
			if !workflow.IsNoop(from, to) {
				if err := tx.UpdateTaskStatus(ctx, taskID, to, now); err != nil {
					return nil, err
				}
				c, err := t.record(ctx, tx, taskID, activity.Draft{
					Kind:    activity.KindStatusChange,
					Editor:  actor.UserID,
					From:    string(from),
					To:      string(to),
					Subject: task.Title,
					Surface: surface,
				})
				if err != nil {
					return nil, err
				}
				changes = append(changes, c)
			}
		}

		task, err := loadTask(ctx, tx, taskID)
		if err != nil {
			return nil, err
		}
		result.Task = task
		if subtaskID != "" {
			if st, ok := task.Subtask(subtaskID); ok {
				result.Subtask = st
			}
		}
		return changes, nil
	})
	if err != nil {
		t.logger.Warn("status update failed", "id", id, "status", status, "err", err)
		return nil, fail(op, id, err)
	}

	t.logger.Info("status updated",
		"task", taskID, "subtask", subtaskID,
		"from", from, "to", to,
		"surface", surface, "editor", actor.UserID,
		"rollup", result.Task.Rollup.Short())
	return &result, nil
}

// UpdateFields applies a partial update, logging one entry per field that
// actually changed.
func (t *Tracker) UpdateFields(ctx context.Context, taskID string, patch FieldsPatch, actor models.Actor, surface models.Surface) (*models.Task, error) {
	const op = "update_fields"
	if err := checkCaller(op, taskID, actor, surface); err != nil {
		return nil, err
	}

	var title string
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid(op, taskID, "title must not be empty")
		}
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, invalid(op, taskID, fmt.Sprintf("unknown priority %d", *patch.Priority))
	}
	var due *string
	if patch.DueDate != nil {
		d, err := models.ParseDueDate(*patch.DueDate)
		if err != nil {
			return nil, fail(op, taskID, err)
		}
		formatted := models.FormatDate(d)
		due = &formatted
	}

	var updated *models.Task
	err := t.mutate(ctx, taskID, func(tx *db.Tx) ([]Change, error) {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}

		var drafts []activity.Draft
		draft := func(kind activity.Kind, from, to string) {
			drafts = append(drafts, activity.Draft{
				Kind: kind, Editor: actor.UserID, From: from, To: to, Subject: task.Title, Surface: surface,
			})
		}

		if patch.Title != nil && title != task.Title {
			draft(activity.KindTitleChange, task.Title, title)
			task.Title = title
		}
		if patch.Description != nil && *patch.Description != task.Description {
			draft(activity.KindDescriptionChange, task.Description, *patch.Description)
			task.Description = *patch.Description
		}
		if patch.Priority != nil && *patch.Priority != task.Priority {
			draft(activity.KindPriorityChange, strconv.Itoa(int(task.Priority)), strconv.Itoa(int(*patch.Priority)))
			task.Priority = *patch.Priority
		}
		if due != nil && *due != models.FormatDate(task.DueDate) {
			draft(activity.KindDueDateChange, models.FormatDate(task.DueDate), *due)
			task.DueDate, _ = models.ParseDueDate(*due)
		}

		if len(drafts) == 0 {
			updated, err = loadTask(ctx, tx, taskID)
			return nil, err
		}

		task.UpdatedAt = t.stamp()
		if err := tx.UpdateTask(ctx, task); err != nil {
			return nil, err
		}
		changes := make([]Change, 0, len(drafts))
		for _, d := range drafts {
			c, err := t.record(ctx, tx, taskID, d)
			if err != nil {
				return nil, err
			}
			changes = append(changes, c)
		}
		updated, err = loadTask(ctx, tx, taskID)
		return changes, err
	})
	if err != nil {
		t.logger.Warn("field update failed", "task", taskID, "err", err)
		return nil, fail(op, taskID, err)
	}
	t.logger.Info("fields updated", "task", taskID, "surface", surface, "editor", actor.UserID)
	return updated, nil
}

// CreateSubtask appends a subtask to parentID and returns its id. The subtask
// inherits nothing from the parent.
func (t *Tracker) CreateSubtask(ctx context.Context, parentID string, in SubtaskInput, actor models.Actor, surface models.Surface) (string, error) {
	const op = "create_subtask"
	if err := checkCaller(op, parentID, actor, surface); err != nil {
		return "", err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return "", invalid(op, parentID, "title is required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusTodo
	}
	status, err := workflow.Transition("", status)
	if err != nil {
		return "", fail(op, parentID, err)
	}
	due, err := models.ParseDueDate(in.DueDate)
	if err != nil {
		return "", fail(op, parentID, err)
	}

	now := t.stamp()
	st := &models.Subtask{
		ID:        t.newID(),
		TaskID:    parentID,
		Title:     title,
		Notes:     in.Notes,
		Status:    status,
		DueDate:   due,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = t.mutate(ctx, parentID, func(tx *db.Tx) ([]Change, error) {
		ok, err := tx.TaskExists(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("parent task %s: %w", parentID, models.ErrNotFound)
		}
		if err := tx.InsertSubtask(ctx, st); err != nil {
			return nil, err
		}
		if err := tx.TouchTask(ctx, parentID, now); err != nil {
			return nil, err
		}
		c, err := t.record(ctx, tx, parentID, activity.Draft{
			Kind:      activity.KindSubtaskCreated,
			SubtaskID: st.ID,
			Editor:    actor.UserID,
			Subject:   st.Title,
			Surface:   surface,
		})
		if err != nil {
			return nil, err
		}
		return []Change{c}, nil
	})
	if err != nil {
		t.logger.Warn("create subtask failed", "task", parentID, "err", err)
		return "", fail(op, parentID, err)
	}
	t.logger.Info("subtask created", "task", parentID, "subtask", st.ID, "surface", surface)
	return st.ID, nil
}

// DeleteSubtask removes a subtask. Only roles that carry delete permission
// may do so; the check happens here regardless of what the caller hid.
func (t *Tracker) DeleteSubtask(ctx context.Context, subtaskID string, actor models.Actor, surface models.Surface) (*models.Task, error) {
	const op = "delete_subtask"
	if err := checkCaller(op, subtaskID, actor, surface); err != nil {
		return nil, err
	}
	if !actor.Role.CanDeleteSubtasks() {
		t.logger.Warn("subtask delete denied", "subtask", subtaskID, "editor", actor.UserID, "role", actor.Role)
		return nil, &models.TaskError{
			Op:      op,
			ID:      subtaskID,
			Message: fmt.Sprintf("role %s may not delete subtasks", actor.Role),
			Err:     models.ErrPermissionDenied,
		}
	}

	st, err := t.db.GetSubtask(ctx, subtaskID)
	if err != nil {
		return nil, fail(op, subtaskID, err)
	}
	taskID := st.TaskID

	var updated *models.Task
	err = t.mutate(ctx, taskID, func(tx *db.Tx) ([]Change, error) {
		st, err := tx.GetSubtask(ctx, subtaskID)
		if err != nil {
			return nil, err
		}
		if err := tx.DeleteSubtask(ctx, subtaskID); err != nil {
			return nil, err
		}
		if err := tx.TouchTask(ctx, taskID, t.stamp()); err != nil {
			return nil, err
		}
		c, err := t.record(ctx, tx, taskID, activity.Draft{
			Kind:      activity.KindSubtaskDeleted,
			SubtaskID: subtaskID,
			Editor:    actor.UserID,
			From:      string(st.Status),
			Subject:   st.Title,
			Surface:   surface,
		})
		if err != nil {
			return nil, err
		}
		updated, err = loadTask(ctx, tx, taskID)
		return []Change{c}, err
	})
	if err != nil {
		t.logger.Warn("delete subtask failed", "subtask", subtaskID, "err", err)
		return nil, fail(op, subtaskID, err)
	}
	t.logger.Info("subtask deleted", "task", taskID, "subtask", subtaskID, "rollup", updated.Rollup.Short())
	return updated, nil
}

// AddCollaborator associates userID with a task. Adding the same user with
// the same role again changes nothing; a different role replaces the old one.
func (t *Tracker) AddCollaborator(ctx context.Context, taskID, userID string, role models.CollaboratorRole, actor models.Actor, surface models.Surface) (*models.Task, error) {
	const op = "add_collaborator"
	if err := checkCaller(op, taskID, actor, surface); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid(op, taskID, "user id is required")
	}
	role, err := models.ParseCollaboratorRole(string(role))
	if err != nil {
		return nil, fail(op, taskID, err)
	}

	var updated *models.Task
	err = t.mutate(ctx, taskID, func(tx *db.Tx) ([]Change, error) {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		var previous string
		if c, ok := task.Collaborator(userID); ok {
			if c.Role == role {
				updated, err = loadTask(ctx, tx, taskID)
				return nil, err
			}
			previous = string(c.Role)
		}
		now := t.stamp()
		if err := tx.UpsertCollaborator(ctx, taskID, userID, role, now); err != nil {
			return nil, err
		}
		if err := tx.TouchTask(ctx, taskID, now); err != nil {
			return nil, err
		}
		c, err := t.record(ctx, tx, taskID, activity.Draft{
			Kind:    activity.KindAssignmentChange,
			Editor:  actor.UserID,
			From:    previous,
			To:      string(role),
			Subject: userID,
			Surface: surface,
		})
		if err != nil {
			return nil, err
		}
		updated, err = loadTask(ctx, tx, taskID)
		return []Change{c}, err
	})
	if err != nil {
		return nil, fail(op, taskID, err)
	}
	t.logger.Debug("collaborator added", "task", taskID, "user", userID, "role", role)
	return updated, nil
}

// RemoveCollaborator removes userID from a task; removing a non-collaborator
// is a no-op.
func (t *Tracker) RemoveCollaborator(ctx context.Context, taskID, userID string, actor models.Actor, surface models.Surface) (*models.Task, error) {
	const op = "remove_collaborator"
	if err := checkCaller(op, taskID, actor, surface); err != nil {
		return nil, err
	}

	var updated *models.Task
	err := t.mutate(ctx, taskID, func(tx *db.Tx) ([]Change, error) {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		c, ok := task.Collaborator(userID)
		if !ok {
			updated, err = loadTask(ctx, tx, taskID)
			return nil, err
		}
		previous := string(c.Role)
		if err := tx.DeleteCollaborator(ctx, taskID, userID); err != nil {
			return nil, err
		}
		if err := tx.TouchTask(ctx, taskID, t.stamp()); err != nil {
			return nil, err
		}
		change, err := t.record(ctx, tx, taskID, activity.Draft{
			Kind:    activity.KindAssignmentChange,
			Editor:  actor.UserID,
			From:    previous,
			Subject: userID,
			Surface: surface,
		})
		if err != nil {
			return nil, err
		}
		updated, err = loadTask(ctx, tx, taskID)
		return []Change{change}, err
	})
	if err != nil {
		return nil, fail(op, taskID, err)
	}
	t.logger.Debug("collaborator removed", "task", taskID, "user", userID)
	return updated, nil
}

// AddTag adds tag to a task; the tag set has no duplicates
func (t *Tracker) AddTag(ctx context.Context, taskID, tag string, actor models.Actor, surface models.Surface) (*models.Task, error) {
	return t.changeTag(ctx, "add_tag", taskID, tag, true, actor, surface)
}

// RemoveTag removes tag from a task
func (t *Tracker) RemoveTag(ctx context.Context, taskID, tag string, actor models.Actor, surface models.Surface) (*models.Task, error) {
	return t.changeTag(ctx, "remove_tag", taskID, tag, false, actor, surface)
}

func (t *Tracker) changeTag(ctx context.Context, op, taskID, tag string, add bool, actor models.Actor, surface models.Surface) (*models.Task, error) {
	if err := checkCaller(op, taskID, actor, surface); err != nil {
		return nil, err
	}
	tags, err := normalizeTags([]string{tag})
	if err != nil {
		return nil, fail(op, taskID, err)
	}
	tag = tags[0]

	var updated *models.Task
	err = t.mutate(ctx, taskID, func(tx *db.Tx) ([]Change, error) {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.HasTag(tag) == add {
			updated, err = loadTask(ctx, tx, taskID)
			return nil, err
		}
		d := activity.Draft{Kind: activity.KindTagChange, Editor: actor.UserID, Subject: tag, Surface: surface}
		if add {
			err = tx.AddTagToTask(ctx, taskID, tag)
			d.To = tag
		} else {
			err = tx.RemoveTagFromTask(ctx, taskID, tag)
			d.From = tag
		}
		if err != nil {
			return nil, err
		}
		if err := tx.TouchTask(ctx, taskID, t.stamp()); err != nil {
			return nil, err
		}
		c, err := t.record(ctx, tx, taskID, d)
		if err != nil {
			return nil, err
		}
		updated, err = loadTask(ctx, tx, taskID)
		return []Change{c}, err
	})
	if err != nil {
		return nil, fail(op, taskID, err)
	}
	return updated, nil
}

var errEmptyTag = errors.New("tag must not be empty")

func normalizeTags(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, raw := range in {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			return nil, fmt.Errorf("%w: %v", models.ErrValidation, errEmptyTag)
		}
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out, nil
}
