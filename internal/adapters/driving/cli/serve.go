package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/logger"
)

var (
	serveAddr      string
	serveRateLimit float64
	serveSeed      bool
	serveNoWarmup  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves search and document routes as JSON over HTTP.

The index is warmed up in the background so the first search does not pay
for the build. With index.watch on and the csv backend, edits to the csv
file made by other programs invalidate the index.

Routes:
  POST   /search
  GET    /documents
  GET    /documents/{id}
  POST   /documents
  PUT    /documents/{id}
  DELETE /documents/{id}
  GET    /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default server.addr)")
	serveCmd.Flags().Float64Var(&serveRateLimit, "rate-limit", 0, "requests per second per client (default server.rate_limit)")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "copy storage.seed_csv into an empty store first")
	serveCmd.Flags().BoolVar(&serveNoWarmup, "no-warmup", false, "build the index on the first search instead")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}
	ctx := commandContext(cmd)

	server := domain.DefaultAppSettings().Server
	watch := false
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		server = settings.Server
		watch = settings.Index.Watch
	}
	if cmd.Flags().Changed("addr") {
		server.Addr = serveAddr
	}
	if cmd.Flags().Changed("rate-limit") {
		server.RateLimit = serveRateLimit
	}

	if serveSeed && seeder != nil {
		n, err := seeder.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		if n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d rows\n", n)
		}
	}

	if watch && fileWatcher != nil {
		if err := fileWatcher.Start(ctx); err != nil {
			return fmt.Errorf("starting file watcher: %w", err)
		}
		defer fileWatcher.Close()
	}

	api, err := httpapi.NewServer(&httpapi.Ports{
		Search:   searchService,
		Document: documentService,
		Index:    indexService,
	}, httpapi.WithRateLimit(server.RateLimit))
	if err != nil {
		return err
	}

	if !serveNoWarmup && indexService != nil {
		go warmup(ctx)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", server.Addr)
	err = api.Run(ctx, server.Addr)
	if isCanceled(err) {
		return nil
	}
	return err
}

// warmup builds the index off the request path. Failure is not fatal:
// the first search retries the build.
func warmup(ctx context.Context) {
	if err := indexService.Warmup(ctx); err != nil {
		if !isCanceled(err) {
			logger.Warn("index warmup failed: %v", err)
		}
		return
	}
	st := indexService.Status()
	logger.Info("index ready: %d passages (%s)", st.Passages, st.Model)
}
