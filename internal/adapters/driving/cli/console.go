package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/adapters/driving/console"
	"github.com/custodia-labs/handbook/internal/core/domain"
)

var consolePresenter string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Ask questions in an interactive prompt",
	Long: `Starts a read-eval-print loop over the handbook index.

Commands:
  help             Show usage
  clear            Clear the screen
  exit, quit, :q   Leave the console

The index is built before the first prompt.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consolePresenter, "presenter", "", "output style: auto, plain or rich (default console.presenter)")
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	mode := domain.PresenterAuto
	info := console.SessionInfo{}
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		mode = settings.Console.Presenter
		info.Model = settings.Embedding.Model
	}
	if cmd.Flags().Changed("presenter") {
		mode = domain.PresenterMode(consolePresenter)
		if !mode.IsValid() {
			return fmt.Errorf("%w: unknown presenter %q (want auto, plain or rich)", domain.ErrInvalidInput, consolePresenter)
		}
	}

	if indexService != nil {
		fmt.Fprintln(out, "Loading index...")
		if err := indexService.Warmup(ctx); err != nil {
			return fmt.Errorf("warmup failed: %w", err)
		}
		st := indexService.Status()
		info.Source = st.Source
		if st.Model != "" {
			info.Model = st.Model
		}
	}

	repl, err := console.New(searchService, console.SelectPresenter(out, mode), cmd.InOrStdin(), out,
		console.WithSessionInfo(info))
	if err != nil {
		return err
	}
	return repl.Run(ctx)
}
