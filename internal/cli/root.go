// Package cli implements the tally command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/tally/internal/activity"
	"github.com/tgienger/tally/internal/config"
	"github.com/tgienger/tally/internal/db"
	"github.com/tgienger/tally/internal/models"
	"github.com/tgienger/tally/internal/tracker"
)

// app holds the state shared by every command of one invocation
type app struct {
	version string

	// flags
	configPath string
	dbPath     string
	user       string
	role       string
	surface    string

	cfg     *config.Config
	db      *db.DB
	tracker *tracker.Tracker
	logger  *slog.Logger
	logFile *os.File
}

// NewRootCmd builds a fresh command tree
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	rootCmd := &cobra.Command{
		Use:   "tally",
		Short: "tally - tasks, subtasks and their history",
		Long: `tally tracks tasks and subtasks through To Do, In Progress, Blocked and
Completed, keeps a per-task completion roll-up and an activity log of every
change.

Run without arguments to open the interactive board.`,
		RunE:          a.runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/tally/config.yaml)")
	pf.StringVar(&a.dbPath, "db", "", "Database file (overrides database.path)")
	pf.StringVar(&a.user, "as", "", "Editor user id (overrides user.id)")
	pf.StringVar(&a.role, "role", "", "Editor role: manager or staff (overrides user.role)")
	pf.StringVar(&a.surface, "surface", "", "Origin surface recorded in the log: list_view, kanban_board or detail_view")

	rootCmd.AddCommand(a.projectCmd())
	rootCmd.AddCommand(a.taskCmd())
	rootCmd.AddCommand(a.subtaskCmd())
	rootCmd.AddCommand(a.collabCmd())
	rootCmd.AddCommand(a.configCmd())
	rootCmd.AddCommand(a.versionCmd())

	rootCmd.Version = version
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) loadConfig() error {
	if a.cfg != nil {
		return nil
	}
	path, err := a.configFile()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.user != "" {
		cfg.User.ID = a.user
	}
	if a.role != "" {
		cfg.User.Role = a.role
	}
	if a.surface != "" {
		cfg.Surface = a.surface
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// open loads config, opens the database and builds the tracker. logTo
// receives log output.
func (a *app) open(logTo io.Writer) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	path, err := a.databasePath()
	if err != nil {
		return err
	}
	database, err := db.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	a.db = database
	a.logger = a.cfg.Log.Logger(logTo).With("db", path)
	a.tracker = tracker.New(database, activity.NewRecorder(), a.logger)
	return nil
}

// withTracker wraps a command body that needs an open tracker
func (a *app) withTracker(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd.ErrOrStderr()); err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args)
	}
}

func (a *app) databasePath() (string, error) {
	if a.cfg.Database.Path != "" {
		return a.cfg.Database.Path, nil
	}
	return db.DefaultPath()
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) actor() models.Actor {
	return a.cfg.Actor()
}

func (a *app) origin() models.Surface {
	s, _ := models.ParseSurface(a.cfg.Surface)
	return s
}

// resolve expands an id or unique id prefix into its task id and, for
// subtasks, subtask id
func (a *app) resolve(ctx context.Context, ref string) (taskID, subtaskID string, err error) {
	if taskID, subtaskID, err = a.tracker.ResolveTask(ctx, ref); err == nil {
		return taskID, subtaskID, nil
	}
	tasks, lerr := a.tracker.Tasks(ctx, tracker.Filter{})
	if lerr != nil {
		return "", "", lerr
	}

	var matches [][2]string
	for _, t := range tasks {
		if hasPrefix(t.ID, ref) {
			matches = append(matches, [2]string{t.ID, ""})
		}
		for _, st := range t.Subtasks {
			if hasPrefix(st.ID, ref) {
				matches = append(matches, [2]string{t.ID, st.ID})
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", "", err
	case 1:
		return matches[0][0], matches[0][1], nil
	}
	return "", "", fmt.Errorf("%w: id prefix %q is ambiguous (%d matches)", models.ErrValidation, ref, len(matches))
}

// resolveTask is resolve for commands that only accept task ids
func (a *app) resolveTask(ctx context.Context, ref string) (string, error) {
	taskID, subtaskID, err := a.resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if subtaskID != "" {
		return "", fmt.Errorf("%w: %s is a subtask, expected a task", models.ErrValidation, ref)
	}
	return taskID, nil
}

func hasPrefix(id, ref string) bool {
	return len(ref) >= 4 && strings.HasPrefix(id, ref)
}

// tuiLogPath places the TUI log next to the database
func tuiLogPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "tally.log")
}
