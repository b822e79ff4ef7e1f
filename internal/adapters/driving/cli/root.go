// Package cli provides the handbook command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// Global flags.
var (
	configPath   string
	verbose      bool
	jsonOutput   bool
	outputFormat string
)

// Services used by the commands. They are installed by the wiring
// before a command runs, or directly by tests.
var (
	searchService   driving.SearchService
	documentService driving.DocumentService
	importService   driving.ImportService
	indexService    driving.IndexService
	settingsService driving.SettingsService
	seeder          Seeder
	fileWatcher     Watcher
	closeServices   func() error
)

// Seeder copies a seed table into an empty row store.
type Seeder interface {
	Seed(ctx context.Context) (int, error)
}

// Watcher invalidates the index when the row file changes on disk.
type Watcher interface {
	Start(ctx context.Context) error
	Close() error
}

// Services carries the wired application.
type Services struct {
	Search   driving.SearchService
	Document driving.DocumentService
	Import   driving.ImportService
	Index    driving.IndexService
	Settings driving.SettingsService

	// Seeder is nil when storage.seed_csv is not set.
	Seeder Seeder

	// Watcher is nil unless index.watch is on and the backend is csv.
	Watcher Watcher

	// Close releases storage and the embedding model.
	Close func() error
}

// Wiring builds services once the global flags are parsed.
type Wiring struct {
	// Settings opens the configuration only, for commands that must work
	// while storage or the embedding provider is misconfigured.
	Settings func(configPath string) (driving.SettingsService, error)

	// Services wires the whole application.
	Services func(ctx context.Context, configPath string) (*Services, error)
}

var wiring Wiring

// SetWiring installs the functions that wire the application.
func SetWiring(w Wiring) {
	wiring = w
}

// SetServices installs already wired services.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	searchService = s.Search
	documentService = s.Document
	importService = s.Import
	indexService = s.Index
	settingsService = s.Settings
	seeder = s.Seeder
	fileWatcher = s.Watcher
	closeServices = s.Close
}

// annotationScope tells setup how much to wire for a command.
const annotationScope = "handbook/scope"

// Wiring scopes.
const (
	scopeNone     = "none"
	scopeSettings = "settings"
)

var rootCmd = &cobra.Command{
	Use:   "handbook",
	Short: "Semantic search over the company handbook",
	Long: `handbook answers employee questions from the internal document corpus.

Documents are stored as chunk rows (csv, sqlite or postgres), embedded with
the configured model and ranked by cosine similarity with per-document
diversity. Search from the command line, the interactive console, the TUI,
the HTTP API or an MCP client.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.handbook/config.toml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&jsonOutput, "json", false, "shorthand for --output json")
	flags.StringVarP(&outputFormat, "output", "o", outputText, "output format: text, json or yaml")
}

// setup configures logging and wires services before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	f, err := format()
	if err != nil {
		return err
	}
	logger.SetJSON(f == outputJSON)

	switch scope(cmd) {
	case scopeNone:
		return nil
	case scopeSettings:
		if wiring.Settings == nil {
			return nil
		}
		svc, err := wiring.Settings(configPath)
		if err != nil {
			return err
		}
		settingsService = svc
		return nil
	}

	if wiring.Services == nil {
		return nil
	}
	svc, err := wiring.Services(commandContext(cmd), configPath)
	if err != nil {
		return err
	}
	SetServices(svc)
	return nil
}

// scope returns the wiring scope of cmd, inherited from its parents.
func scope(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations[annotationScope]; ok {
			return v
		}
	}
	return ""
}

// Execute runs the root command until it finishes or the process is
// interrupted, then releases the wired services.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if closeErr := closeServices(); closeErr != nil {
			logger.Warn("closing services: %v", closeErr)
		}
		closeServices = nil
	}
	return err
}

// errNotConfigured reports a command whose service was not wired.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

// commandContext returns the command context, or a background context
// when the command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isCanceled reports whether err only says the command was interrupted.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
