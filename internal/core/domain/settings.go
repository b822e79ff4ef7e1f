package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderLocal is the built-in feature hashing embedder.
	// It needs no network and is meant for development and tests.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs without a remote service.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderLocal:
		return "Built-in hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// StorageBackend identifies where the row table is persisted.
type StorageBackend string

// Available storage backends.
const (
	StorageCSV      StorageBackend = "csv"
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
	StorageMemory   StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageCSV, StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// IsRelational reports whether the backend is a database.
func (b StorageBackend) IsRelational() bool {
	return b == StorageSQLite || b == StoragePostgres
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// PresenterMode selects the console presenter.
type PresenterMode string

// Available presenter modes.
const (
	PresenterAuto  PresenterMode = "auto"
	PresenterPlain PresenterMode = "plain"
	PresenterRich  PresenterMode = "rich"
)

// IsValid returns true if the mode is recognised.
func (m PresenterMode) IsValid() bool {
	switch m {
	case PresenterAuto, PresenterPlain, PresenterRich:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// StorageSettings holds row source configuration.
type StorageSettings struct {
	// Backend selects the row source implementation.
	Backend StorageBackend

	// CSVPath is the file used by the csv backend.
	CSVPath string

	// SQLiteDir is the directory holding the sqlite database.
	SQLiteDir string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string

	// SeedCSV is copied into an empty relational backend.
	SeedCSV string
}

// IndexSettings holds semantic index configuration.
type IndexSettings struct {
	// ChunkSize is the maximum passage length in characters.
	ChunkSize int

	// BatchSize is the number of passages embedded per request.
	BatchSize int

	// Watch invalidates the index when the csv file changes on disk.
	Watch bool
}

// SearchSettings holds ranking configuration.
type SearchSettings struct {
	// Options are the default ranking options.
	Options SearchOptions

	// QueryTemplate wraps the raw query before embedding. It must
	// contain exactly one %s verb.
	QueryTemplate string
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// RateLimit is the allowed requests per second per client (0 disables).
	RateLimit float64
}

// ConsoleSettings holds interactive console configuration.
type ConsoleSettings struct {
	// Presenter selects plain or rich output.
	Presenter PresenterMode
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage   StorageSettings
	Embedding EmbeddingSettings
	Index     IndexSettings
	Search    SearchSettings
	Server    ServerSettings
	Console   ConsoleSettings
}

// Default setting values.
const (
	DefaultCSVPath       = "data/docs.csv"
	DefaultChunkSize     = 900
	DefaultBatchSize     = 64
	DefaultServerAddr    = ":8000"
	DefaultQueryTemplate = "Вопрос сотрудника компании: %s. Найди инструкцию или регламент, что делать."
)

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend: StorageCSV,
			CSVPath: DefaultCSVPath,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		Index: IndexSettings{
			ChunkSize: DefaultChunkSize,
			BatchSize: DefaultBatchSize,
		},
		Search: SearchSettings{
			Options:       DefaultSearchOptions(),
			QueryTemplate: DefaultQueryTemplate,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
		Console: ConsoleSettings{
			Presenter: PresenterAuto,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderLocal,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "jeffh/intfloat-multilingual-e5-small:f16",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderLocal:  "hashing-384",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"jeffh/intfloat-multilingual-e5-small:f16": 384,
		"intfloat/multilingual-e5-small":           384,
		"nomic-embed-text":                         768,
		"mxbai-embed-large":                        1024,
		"all-minilm":                               384,
		"text-embedding-3-small":                   1536,
		"text-embedding-3-large":                   3072,
		"hashing-384":                              384,
	}
}

// Validate checks the settings the services are built from. The embedding
// provider is not checked here: it is loaded on the first index build.
func (s AppSettings) Validate() error {
	switch s.Storage.Backend {
	case StorageCSV:
		if s.Storage.CSVPath == "" {
			return fmt.Errorf("%w: storage backend csv requires storage.csv_path", ErrValidation)
		}
	case StoragePostgres:
		if s.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: storage backend postgres requires storage.postgres_dsn or DATABASE_URL", ErrValidation)
		}
	}
	if s.Index.ChunkSize < 1 {
		return fmt.Errorf("%w: index.chunk_size must be positive", ErrValidation)
	}
	if s.Index.BatchSize < 1 {
		return fmt.Errorf("%w: index.batch_size must be positive", ErrValidation)
	}
	if err := s.Search.Options.Validate(); err != nil {
		return err
	}
	return ValidateQueryTemplate(s.Search.QueryTemplate)
}

// ValidateQueryTemplate accepts templates with exactly one %s verb. "%%"
// is a literal percent sign; any other verb is rejected.
func ValidateQueryTemplate(template string) error {
	verbs := 0
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 == len(template) {
			return fmt.Errorf("%w: query template ends with a bare %%", ErrInvalidInput)
		}
		i++
		switch template[i] {
		case '%':
		case 's':
			verbs++
		default:
			return fmt.Errorf("%w: query template may only use %%s, found %%%c", ErrInvalidInput, template[i])
		}
	}
	if verbs != 1 {
		return fmt.Errorf("%w: query template needs exactly one %%s", ErrInvalidInput)
	}
	return nil
}
