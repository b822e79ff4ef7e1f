package driving

import (
	"context"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// SearchService provides semantic search to external actors.
type SearchService interface {
	// Search ranks passages against query. Zero-valued option counts fall
	// back to Defaults; MinScore is used as given.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Defaults returns the configured ranking options. Adapters start from
	// these and override the fields a caller supplied.
	Defaults() domain.SearchOptions
}
