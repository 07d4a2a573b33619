package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/tracker"
)

func (a *app) subtaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtask",
		Aliases: []string{"sub"},
		Short:   "Manage the subtasks of a task",
	}
	cmd.AddCommand(a.subtaskAddCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "status <subtask-id> <status>",
		Short: "Move a subtask and update its parent's roll-up",
		Args:  cobra.ExactArgs(2),
		RunE:  a.withTracker(a.statusRunE),
	})
	cmd.AddCommand(a.subtaskDeleteCmd())
	return cmd
}

func (a *app) subtaskAddCmd() *cobra.Command {
	var notes, due, status string
	cmd := &cobra.Command{
		Use:   "add <task-id> <title>",
		Short: "Add a subtask to a task",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Notes")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default To Do)")

	cmd.RunE = a.withTracker(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in := tracker.SubtaskInput{Title: args[1], Notes: notes, DueDate: due}
		if status != "" {
			s, err := models.ParseStatus(status)
			if err != nil {
				return err
			}
			in.Status = s
		}
		parentID, err := a.resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		id, err := a.tracker.CreateSubtask(ctx, parentID, in, a.actor(), a.origin())
		if err != nil {
			return err
		}
		r, err := a.tracker.Rollup(ctx, parentID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created subtask %s (%s)\n", id, r)
		return nil
	})
	return cmd
}

func (a *app) subtaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <subtask-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a subtask (managers only)",
		Args:    cobra.ExactArgs(1),
		RunE: a.withTracker(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, subtaskID, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if subtaskID == "" {
				return fmt.Errorf("%w: %s is a task, expected a subtask", models.ErrValidation, args[0])
			}
			task, err := a.tracker.DeleteSubtask(ctx, subtaskID, a.actor(), a.origin())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subtask. %s: %s\n", task.Title, task.Rollup)
			return nil
		}),
	}
}
