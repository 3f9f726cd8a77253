package cmd

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tracelens/tracelens/internal/tui"
)

// viewCmd launches the interactive viewer
var viewCmd = &cobra.Command{
	Use:   "view <trace.zip>",
	Short: "View a trace archive in the interactive TUI",
	Long: `Open a trace archive (or report bundle) in the interactive viewer.

Each trace in the archive becomes a tab. The left pane lists actions in
begin order; the right pane shows details for the selected action with
Overview, Params, Network, Console and Error tabs.

Examples:
  tracelens view trace.zip
  tracelens view report.zip     # bundle: one tab per nested trace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		viewer := tui.NewViewer(model, filepath.Base(args[0]))
		p := tea.NewProgram(viewer, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
