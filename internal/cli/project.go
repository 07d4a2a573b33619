package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	var description string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
	}
	add.Flags().StringVarP(&description, "description", "d", "", "Description")
	add.RunE = a.withTracker(func(cmd *cobra.Command, args []string) error {
		p, err := a.tracker.CreateProject(cmd.Context(), args[0], description)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created project %s %q\n", p.ID, p.Title)
		return nil
	})

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: a.withTracker(func(cmd *cobra.Command, args []string) error {
			projects, err := a.tracker.Projects(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects.")
				return nil
			}
			for _, p := range projects {
				fmt.Fprintf(out, "%s  %s\n", p.ID, p.Title)
			}
			return nil
		}),
	}

	cmd.AddCommand(add, list)
	return cmd
}
