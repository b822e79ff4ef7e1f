package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the full-screen search interface.

Controls:
  Enter      - Search / open the selected document
  ↑/k, ↓/j   - Navigate results or scroll a document
  / or n     - New search
  ?          - Help
  Esc        - Back (quits from the search screen)
  Ctrl+C     - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("panic in TUI: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(searchService, documentService, indexService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(commandContext(cmd))
	if err := app.Run(); err != nil && !isCanceled(err) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
