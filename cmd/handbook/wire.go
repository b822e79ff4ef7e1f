package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/handbook/internal/adapters/driven/ai"
	"github.com/custodia-labs/handbook/internal/adapters/driven/config/file"
	"github.com/custodia-labs/handbook/internal/adapters/driven/storage/csvfile"
	"github.com/custodia-labs/handbook/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/handbook/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/handbook/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/handbook/internal/adapters/driven/watcher"
	"github.com/custodia-labs/handbook/internal/adapters/driving/cli"
	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/core/services"
	"github.com/custodia-labs/handbook/internal/logger"
	"github.com/custodia-labs/handbook/internal/normalisers"
	"github.com/custodia-labs/handbook/internal/postprocessors/chunker"
)

// openSettings opens the TOML config at configPath, or at
// ~/.handbook/config.toml when configPath is empty.
func openSettings(configPath string) (driving.SettingsService, error) {
	var (
		store *file.ConfigStore
		err   error
	)
	if configPath != "" {
		store, err = file.NewConfigStoreAt(configPath)
	} else {
		store, err = file.NewConfigStore("")
	}
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// wireServices builds the application from the settings. Storage is opened
// here; the embedding model is loaded by the index on its first build.
func wireServices(ctx context.Context, configPath string) (*cli.Services, error) {
	settingsService, err := openSettings(configPath)
	if err != nil {
		return nil, err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return assemble(ctx, settingsService, settings)
}

// assemble wires the services for settings.
func assemble(ctx context.Context, settingsService driving.SettingsService, settings *domain.AppSettings) (*cli.Services, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	source, closeSource, err := openRowSource(ctx, settings.Storage)
	if err != nil {
		return nil, err
	}

	embedding := settings.Embedding
	index := services.NewIndex(source, func(ctx context.Context) (driven.EmbeddingService, error) {
		return ai.CreateAndValidateEmbeddingService(ctx, &embedding)
	}, services.WithBatchSize(settings.Index.BatchSize))

	docs := services.NewDocumentService(index,
		services.WithChunker(chunker.New(chunker.WithChunkSize(settings.Index.ChunkSize))))

	svc := &cli.Services{
		Search:   services.NewSearchService(index, settings.Search),
		Document: docs,
		Import:   services.NewImportService(docs, normalisers.Default()),
		Index:    index,
		Settings: settingsService,
		Close: func() error {
			return errors.Join(index.Close(), closeSource())
		},
	}

	if settings.Storage.SeedCSV != "" {
		seed := &csvSeeder{index: index, from: csvfile.NewRowSource(settings.Storage.SeedCSV)}
		svc.Seeder = seed

		// Nothing else fills the memory store.
		if settings.Storage.Backend == domain.StorageMemory {
			if _, err := seed.Seed(ctx); err != nil {
				_ = svc.Close()
				return nil, fmt.Errorf("seeding memory store: %w", err)
			}
		}
	}

	if settings.Index.Watch {
		if settings.Storage.Backend == domain.StorageCSV {
			svc.Watcher = watcher.New(settings.Storage.CSVPath, index)
		} else {
			logger.Debug("index.watch ignored: backend %s is not a file", settings.Storage.Backend)
		}
	}

	return svc, nil
}

// openRowSource opens the configured backend. The close function releases
// database handles.
func openRowSource(ctx context.Context, s domain.StorageSettings) (driven.RowSource, func() error, error) {
	noop := func() error { return nil }

	switch s.Backend {
	case domain.StorageCSV, "":
		return csvfile.NewRowSource(s.CSVPath), noop, nil

	case domain.StorageSQLite:
		store, err := sqlite.NewStore(s.SQLiteDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, store.Close, nil

	case domain.StoragePostgres:
		if s.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("%w: storage.postgres_dsn is not set", domain.ErrValidation)
		}
		store, err := postgres.Connect(ctx, s.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrSourceMissing, err)
		}
		return store, store.Close, nil

	case domain.StorageMemory:
		return memory.NewRowSource(nil), noop, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrValidation, s.Backend)
	}
}

// csvSeeder copies a seed csv into the index's row source.
type csvSeeder struct {
	index *services.Index
	from  driven.RowSource
}

func (s *csvSeeder) Seed(ctx context.Context) (int, error) {
	return s.index.Seed(ctx, s.from)
}
