package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/tally/internal/models"
)

func (a *app) collabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collab",
		Short: "Manage task collaborators",
	}

	var access string
	add := &cobra.Command{
		Use:   "add <task-id> <user>",
		Short: "Add a collaborator, or change their role",
		Args:  cobra.ExactArgs(2),
	}
	add.Flags().StringVar(&access, "access", string(models.CollaboratorEditor), "Collaborator role: viewer or editor")
	add.RunE = a.withTracker(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := models.ParseCollaboratorRole(access)
		if err != nil {
			return err
		}
		id, err := a.resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		if _, err := a.tracker.AddCollaborator(ctx, id, args[1], r, a.actor(), a.origin()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is a %s\n", args[1], r)
		return nil
	})

	remove := &cobra.Command{
		Use:     "remove <task-id> <user>",
		Aliases: []string{"rm"},
		Short:   "Remove a collaborator",
		Args:    cobra.ExactArgs(2),
		RunE: a.withTracker(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := a.tracker.RemoveCollaborator(ctx, id, args[1], a.actor(), a.origin()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[1])
			return nil
		}),
	}

	cmd.AddCommand(add, remove)
	return cmd
}
