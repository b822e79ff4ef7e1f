package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers semantic queries against the Index.
type SearchService struct {
	index    *Index
	defaults domain.SearchOptions
	template string
}

// NewSearchService creates a search service over index.
func NewSearchService(index *Index, settings domain.SearchSettings) *SearchService {
	defaults := settings.Options.WithDefaults(domain.DefaultSearchOptions())
	template := settings.QueryTemplate
	if template == "" {
		template = domain.DefaultQueryTemplate
	}
	return &SearchService{
		index:    index,
		defaults: defaults,
		template: template,
	}
}

// Defaults returns the configured ranking options.
func (s *SearchService) Defaults() domain.SearchOptions {
	return s.defaults
}

// Search embeds the prepared query and ranks it against the index.
func (s *SearchService) Search(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}

	opts = opts.WithDefaults(s.defaults)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	logger.Section("Search")
	logger.Debug("query: %q", query)
	logger.Debug("options: pool=%d max_per_doc=%d min_score=%.2f top=%d",
		opts.TopChunks, opts.MaxPerDoc, opts.MinScore, opts.TopResults)

	state, err := s.index.EnsureBuilt(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := state.Model.Embed(ctx, PrepareQuery(s.template, query))
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if dims := state.Dimensions(); dims > 0 && len(vec) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrEmbeddingUnavailable, len(vec), dims)
	}

	results := Rank(normalize(vec), state, opts)
	logger.Debug("search: %d results from build %s in %s",
		len(results), state.BuildID, time.Since(started).Round(time.Millisecond))
	return results, nil
}
