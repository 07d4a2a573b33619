package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tgienger/tally/internal/ui"
)

// runTUI opens the interactive views. Logs go to a file beside the database
// so they do not draw over the screen.
func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	dbPath, err := a.databasePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(tuiLogPath(dbPath), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f

	if err := a.open(f); err != nil {
		a.close()
		return err
	}
	defer a.close()

	return ui.Run(cmd.Context(), a.tracker, a.actor(), a.origin())
}
