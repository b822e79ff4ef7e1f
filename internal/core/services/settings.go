package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStorageBackend   = "storage.backend"
	keyStorageCSVPath   = "storage.csv_path"
	keyStorageSQLiteDir = "storage.sqlite_dir"
	keyStoragePostgres  = "storage.postgres_dsn"
	keyStorageSeedCSV   = "storage.seed_csv"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyIndexChunkSize   = "index.chunk_size"
	keyIndexBatchSize   = "index.batch_size"
	keyIndexWatch       = "index.watch"
	keySearchTopChunks  = "search.top_chunks"
	keySearchMaxPerDoc  = "search.max_per_doc"
	keySearchMinScore   = "search.min_score"
	keySearchTopResults = "search.top_results"
	keySearchTemplate   = "search.query_template"
	keyServerAddr       = "server.addr"
	keyServerRateLimit  = "server.rate_limit"
	keyConsolePresenter = "console.presenter"
)

// EnvPrefix prefixes environment overrides: storage.backend is read from
// HANDBOOK_STORAGE_BACKEND.
const EnvPrefix = "HANDBOOK_"

// legacyEnv maps deployment variables onto config keys. They apply when
// neither a HANDBOOK_ variable nor the config file sets the key.
var legacyEnv = map[string]string{
	keyEmbedModel:      "EMBEDDING_MODEL",
	keyStoragePostgres: "DATABASE_URL",
}

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

var keyKinds = map[string]keyKind{
	keyStorageBackend:   kindString,
	keyStorageCSVPath:   kindString,
	keyStorageSQLiteDir: kindString,
	keyStoragePostgres:  kindString,
	keyStorageSeedCSV:   kindString,
	keyEmbedProvider:    kindString,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyIndexChunkSize:   kindInt,
	keyIndexBatchSize:   kindInt,
	keyIndexWatch:       kindBool,
	keySearchTopChunks:  kindInt,
	keySearchMaxPerDoc:  kindInt,
	keySearchMinScore:   kindFloat,
	keySearchTopResults: kindInt,
	keySearchTemplate:   kindString,
	keyServerAddr:       kindString,
	keyServerRateLimit:  kindFloat,
	keyConsolePresenter: kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	if lookup != nil {
		s.lookupEnv = lookup
	}
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.Embedding.Provider)
	model := s.getString(keyEmbedModel, "")
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			CSVPath:     s.getString(keyStorageCSVPath, defaults.Storage.CSVPath),
			SQLiteDir:   s.getString(keyStorageSQLiteDir, defaults.Storage.SQLiteDir),
			PostgresDSN: s.getString(keyStoragePostgres, ""),
			SeedCSV:     s.getString(keyStorageSeedCSV, ""),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: provider,
			Model:    model,
			BaseURL:  s.getString(keyEmbedBaseURL, ""), // No default - adapters pick their own
			APIKey:   s.getString(keyEmbedAPIKey, ""),
		},
		Index: domain.IndexSettings{
			ChunkSize: s.getInt(keyIndexChunkSize, defaults.Index.ChunkSize),
			BatchSize: s.getInt(keyIndexBatchSize, defaults.Index.BatchSize),
			Watch:     s.getBool(keyIndexWatch, defaults.Index.Watch),
		},
		Search: domain.SearchSettings{
			Options: domain.SearchOptions{
				TopChunks:  s.getInt(keySearchTopChunks, defaults.Search.Options.TopChunks),
				MaxPerDoc:  s.getInt(keySearchMaxPerDoc, defaults.Search.Options.MaxPerDoc),
				MinScore:   s.getFloat(keySearchMinScore, defaults.Search.Options.MinScore),
				TopResults: s.getInt(keySearchTopResults, defaults.Search.Options.TopResults),
			},
			QueryTemplate: s.getString(keySearchTemplate, defaults.Search.QueryTemplate),
		},
		Server: domain.ServerSettings{
			Addr:      s.getString(keyServerAddr, defaults.Server.Addr),
			RateLimit: s.getFloat(keyServerRateLimit, defaults.Server.RateLimit),
		},
		Console: domain.ConsoleSettings{
			Presenter: s.getPresenter(defaults.Console.Presenter),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyStorageCSVPath, settings.Storage.CSVPath},
		{keyStorageSQLiteDir, settings.Storage.SQLiteDir},
		{keyStoragePostgres, settings.Storage.PostgresDSN},
		{keyStorageSeedCSV, settings.Storage.SeedCSV},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyIndexChunkSize, settings.Index.ChunkSize},
		{keyIndexBatchSize, settings.Index.BatchSize},
		{keyIndexWatch, settings.Index.Watch},
		{keySearchTopChunks, settings.Search.Options.TopChunks},
		{keySearchMaxPerDoc, settings.Search.Options.MaxPerDoc},
		{keySearchMinScore, settings.Search.Options.MinScore},
		{keySearchTopResults, settings.Search.Options.TopResults},
		{keySearchTemplate, settings.Search.QueryTemplate},
		{keyServerAddr, settings.Server.Addr},
		{keyServerRateLimit, settings.Server.RateLimit},
		{keyConsolePresenter, string(settings.Console.Presenter)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	return nil
}

// Keys lists every recognised configuration key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := keyKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	default:
		if err := validateEnum(key, value); err != nil {
			return err
		}
		parsed = value
	}

	return s.configStore.Set(key, parsed)
}

func validateEnum(key, value string) error {
	switch key {
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid storage backend: %s", domain.ErrInvalidInput, value)
		}
	case keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, value)
		}
	case keyConsolePresenter:
		if !domain.PresenterMode(value).IsValid() {
			return fmt.Errorf("%w: invalid presenter: %s", domain.ErrInvalidInput, value)
		}
	case keySearchTemplate:
		return domain.ValidateQueryTemplate(value)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	case domain.AIProviderLocal:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

// lookup resolves a key from HANDBOOK_ variables, the config store and
// legacy variables, in that order.
func (s *SettingsService) lookup(key string) (any, bool) {
	envKey := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if v, ok := s.lookupEnv(envKey); ok && v != "" {
		return v, true
	}
	if v, ok := s.configStore.Get(key); ok {
		if str, isStr := v.(string); !isStr || str != "" {
			return v, true
		}
	}
	if name, ok := legacyEnv[key]; ok {
		if v, ok := s.lookupEnv(name); ok && v != "" {
			return v, true
		}
	}
	return nil, false
}

func (s *SettingsService) getString(key, defaultVal string) string {
	v, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return defaultVal
	}
	return str
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	v, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	v, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.getString(keyEmbedProvider, ""))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// getBackend falls back to postgres when only DATABASE_URL is present.
func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.getString(keyStorageBackend, "")
	if val == "" {
		if dsn, ok := s.lookupEnv(legacyEnv[keyStoragePostgres]); ok && dsn != "" {
			return domain.StoragePostgres
		}
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getPresenter(defaultVal domain.PresenterMode) domain.PresenterMode {
	mode := domain.PresenterMode(s.getString(keyConsolePresenter, ""))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}
