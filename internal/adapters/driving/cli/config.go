package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

//nolint:gosec // G101: config key name, not a credential.
const apiKeySetting = "embedding.api_key"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change the settings stored in ~/.handbook/config.toml.

Environment variables HANDBOOK_<SECTION>_<KEY> override the file, for
example HANDBOOK_STORAGE_BACKEND=sqlite. EMBEDDING_MODEL and DATABASE_URL
are honoured when neither the file nor a HANDBOOK_ variable sets the value.`,
	Annotations: map[string]string{annotationScope: scopeSettings},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting",
	Long: `Stores one setting. Run 'handbook config keys' for the list of keys.
The value of embedding.api_key is prompted for when omitted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long:  `Pick the embedding provider and model, then check that the provider answers.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigEmbedding,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	values := settingValues(settings)
	validationErr := settingsService.Validate()

	return render(cmd, values, func(w io.Writer) {
		section := ""
		for _, key := range settingsService.Keys() {
			value, ok := values[key]
			if !ok {
				continue
			}
			name, field, _ := strings.Cut(key, ".")
			if name != section {
				if section != "" {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "[%s]\n", name)
				section = name
			}
			fmt.Fprintf(w, "  %-14s = %v\n", field, value)
		}
		fmt.Fprintln(w)

		if validationErr != nil {
			fmt.Fprintf(w, "Warning: %v\n", validationErr)
			fmt.Fprintln(w, "Run 'handbook config set <key> <value>' to fix configuration issues.")
			return
		}
		fmt.Fprintln(w, "Configuration is valid.")
	})
}

// settingValues flattens settings onto their config keys. The API key is
// masked.
func settingValues(s *domain.AppSettings) map[string]any {
	apiKey := "(not set)"
	if s.Embedding.APIKey != "" {
		apiKey = maskAPIKey(s.Embedding.APIKey)
	}
	return map[string]any{
		"storage.backend":       s.Storage.Backend.String(),
		"storage.csv_path":      s.Storage.CSVPath,
		"storage.sqlite_dir":    s.Storage.SQLiteDir,
		"storage.postgres_dsn":  maskDSN(s.Storage.PostgresDSN),
		"storage.seed_csv":      s.Storage.SeedCSV,
		"embedding.provider":    s.Embedding.Provider.String(),
		"embedding.model":       s.Embedding.Model,
		"embedding.base_url":    s.Embedding.BaseURL,
		apiKeySetting:           apiKey,
		"index.chunk_size":      s.Index.ChunkSize,
		"index.batch_size":      s.Index.BatchSize,
		"index.watch":           s.Index.Watch,
		"search.top_chunks":     s.Search.Options.TopChunks,
		"search.max_per_doc":    s.Search.Options.MaxPerDoc,
		"search.min_score":      s.Search.Options.MinScore,
		"search.top_results":    s.Search.Options.TopResults,
		"search.query_template": s.Search.QueryTemplate,
		"server.addr":           s.Server.Addr,
		"server.rate_limit":     s.Server.RateLimit,
		"console.presenter":     string(s.Console.Presenter),
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case key == apiKeySetting:
		fmt.Fprint(cmd.OutOrStdout(), "Enter API key: ")
		value = readSecret(cmd, bufio.NewReader(cmd.InOrStdin()))
		fmt.Fprintln(cmd.OutOrStdout())
		if value == "" {
			return errors.New("API key is required")
		}
	default:
		return fmt.Errorf("%w: missing value for %s", domain.ErrInvalidInput, key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if key == apiKeySetting {
		shown = maskAPIKey(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, shown)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	keys := settingsService.Keys()
	return render(cmd, keys, func(w io.Writer) {
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
	})
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		fmt.Fprintf(out, "  %d. %s\n", i+1, p.Description())
	}
	fmt.Fprint(out, "\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
	fmt.Fprintf(out, "Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		fmt.Fprint(out, "Enter API key: ")
		apiKey = readSecret(cmd, reader)
		fmt.Fprintln(out)
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	fmt.Fprint(out, "Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		fmt.Fprintf(out, "FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	fmt.Fprintln(out, "OK")

	fmt.Fprintf(out, "Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	fmt.Fprintln(out, "Run 'handbook index rebuild' to re-embed the corpus.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo from a terminal and falls back to a
// plain line read.
func readSecret(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a connection string.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":****@" + host
}
