package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/surface"
	"github.com/tgienger/tally/internal/tracker"
)

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, inspect and change tasks",
	}
	cmd.AddCommand(a.taskAddCmd())
	cmd.AddCommand(a.taskListCmd())
	cmd.AddCommand(a.taskShowCmd())
	cmd.AddCommand(a.taskStatusCmd())
	cmd.AddCommand(a.taskEditCmd())
	cmd.AddCommand(a.taskTagCmd(true))
	cmd.AddCommand(a.taskTagCmd(false))
	cmd.AddCommand(a.taskLogCmd())
	cmd.AddCommand(a.taskTagsCmd())
	return cmd
}

func (a *app) taskAddCmd() *cobra.Command {
	var (
		project, description, priority, due, status string
		tags                                        []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project id")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&priority, "priority", "medium", "Priority: low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default To Do)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag (repeatable)")

	cmd.RunE = a.withTracker(func(cmd *cobra.Command, args []string) error {
		in := tracker.TaskInput{Title: args[0], Description: description, DueDate: due, Tags: tags}
		p, err := models.ParsePriority(priority)
		if err != nil {
			return err
		}
		in.Priority = p
		if status != "" {
			if in.Status, err = models.ParseStatus(status); err != nil {
				return err
			}
		}
		if project != "" {
			in.ProjectID = &project
		}
		task, err := a.tracker.CreateTask(cmd.Context(), in, a.actor(), a.origin())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created task %s %q\n", task.ID, task.Title)
		return nil
	})
	return cmd
}

func (a *app) taskListCmd() *cobra.Command {
	var (
		project, search, tag, status string
		board                        bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks with their subtask roll-up",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Only tasks in this project")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match title or description")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Only tasks with this tag")
	cmd.Flags().StringVar(&status, "status", "", "Only tasks in this status")
	cmd.Flags().BoolVarP(&board, "board", "b", false, "Group by status like the kanban board")

	cmd.RunE = a.withTracker(func(cmd *cobra.Command, args []string) error {
		filter := tracker.Filter{Search: search, Tag: tag}
		if project != "" {
			filter.ProjectID = &project
		}
		if status != "" {
			s, err := models.ParseStatus(status)
			if err != nil {
				return err
			}
			filter.Status = s
		}
		tasks, err := a.tracker.Tasks(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if board {
			printBoard(cmd.OutOrStdout(), tasks)
		} else {
			printList(cmd.OutOrStdout(), tasks)
		}
		return nil
	})
	return cmd
}

func (a *app) taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with subtasks, collaborators and activity",
		Args:  cobra.ExactArgs(1),
		RunE: a.withTracker(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			task, entries, err := a.tracker.TaskDetail(ctx, id)
			if err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), *task, entries)
			return nil
		}),
	}
}

// statusRunE is shared by "task status" and "subtask status"; the id may name
// either
func (a *app) statusRunE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	status, err := models.ParseStatus(args[1])
	if err != nil {
		return err
	}
	taskID, subtaskID, err := a.resolve(ctx, args[0])
	if err != nil {
		return err
	}
	id := taskID
	if subtaskID != "" {
		id = subtaskID
	}

	res, err := a.tracker.UpdateStatus(ctx, id, status, a.actor(), a.origin())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if res.Subtask != nil {
		fmt.Fprintf(out, "Subtask %q is now %s\n", res.Subtask.Title, res.Subtask.Status.Label())
	} else {
		fmt.Fprintf(out, "Task %q is now %s\n", res.Task.Title, res.Task.Status.Label())
	}
	fmt.Fprintf(out, "%s: %s\n", res.Task.Title, res.Task.Rollup)
	return nil
}

func (a *app) taskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task or subtask to To Do, In Progress, Blocked or Completed",
		Args:  cobra.ExactArgs(2),
		RunE:  a.withTracker(a.statusRunE),
	}
}

func (a *app) taskEditCmd() *cobra.Command {
	var title, description, priority, due string
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change title, description, priority or due date",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD, empty clears)")

	cmd.RunE = a.withTracker(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var patch tracker.FieldsPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			patch.Title = &title
		}
		if flags.Changed("description") {
			patch.Description = &description
		}
		if flags.Changed("priority") {
			p, err := models.ParsePriority(priority)
			if err != nil {
				return err
			}
			patch.Priority = &p
		}
		if flags.Changed("due") {
			patch.DueDate = &due
		}

		id, err := a.resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		task, err := a.tracker.UpdateFields(ctx, id, patch, a.actor(), a.origin())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %q\n", task.Title)
		return nil
	})
	return cmd
}

func (a *app) taskTagCmd(add bool) *cobra.Command {
	use, short := "tag", "Add tags to a task"
	if !add {
		use, short = "untag", "Remove tags from a task"
	}
	return &cobra.Command{
		Use:   use + " <task-id> <tag>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: a.withTracker(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			var task *models.Task
			for _, tag := range args[1:] {
				if add {
					task, err = a.tracker.AddTag(ctx, id, tag, a.actor(), a.origin())
				} else {
					task, err = a.tracker.RemoveTag(ctx, id, tag, a.actor(), a.origin())
				}
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tags on %q: %v\n", task.Title, task.Tags)
			return nil
		}),
	}
}

func (a *app) taskLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log <task-id>",
		Short: "Show a task's activity, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: a.withTracker(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			task, entries, err := a.tracker.TaskDetail(ctx, id)
			if err != nil {
				return err
			}
			printLog(cmd.OutOrStdout(), surface.Detail(*task, entries).Log)
			return nil
		}),
	}
}

func (a *app) taskTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every known tag",
		Args:  cobra.NoArgs,
		RunE: a.withTracker(func(cmd *cobra.Command, args []string) error {
			tags, err := a.tracker.Tags(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t.Name)
			}
			return nil
		}),
	}
}
