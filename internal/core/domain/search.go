package domain

import "fmt"

// Ranking defaults.
const (
	DefaultTopChunks  = 80
	DefaultMaxPerDoc  = 1
	DefaultMinScore   = 0.30
	DefaultTopResults = 3
)

// SearchOptions configures ranking.
type SearchOptions struct {
	// TopChunks bounds the candidate pool taken from the full ranking.
	TopChunks int `json:"top_chunks" yaml:"top_chunks"`

	// MaxPerDoc caps how many results one document may contribute.
	MaxPerDoc int `json:"max_per_doc" yaml:"max_per_doc"`

	// MinScore discards candidates scoring below it.
	MinScore float64 `json:"min_score" yaml:"min_score"`

	// TopResults is the maximum number of accepted results.
	TopResults int `json:"top_results" yaml:"top_results"`
}

// DefaultSearchOptions returns the documented ranking defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopChunks:  DefaultTopChunks,
		MaxPerDoc:  DefaultMaxPerDoc,
		MinScore:   DefaultMinScore,
		TopResults: DefaultTopResults,
	}
}

// WithDefaults fills zero-valued counts from base.
// MinScore is taken as given since zero is a meaningful threshold.
func (o SearchOptions) WithDefaults(base SearchOptions) SearchOptions {
	if o.TopChunks == 0 {
		o.TopChunks = base.TopChunks
	}
	if o.MaxPerDoc == 0 {
		o.MaxPerDoc = base.MaxPerDoc
	}
	if o.TopResults == 0 {
		o.TopResults = base.TopResults
	}
	return o
}

// Validate checks the options are usable.
func (o SearchOptions) Validate() error {
	switch {
	case o.TopChunks < 1:
		return fmt.Errorf("%w: top_chunks must be positive", ErrInvalidInput)
	case o.MaxPerDoc < 1:
		return fmt.Errorf("%w: max_per_doc must be positive", ErrInvalidInput)
	case o.TopResults < 1:
		return fmt.Errorf("%w: top_results must be positive", ErrInvalidInput)
	case o.MinScore < -1 || o.MinScore > 1:
		return fmt.Errorf("%w: min_score must be within [-1, 1]", ErrInvalidInput)
	}
	return nil
}

// SearchResult is one accepted passage.
type SearchResult struct {
	// Score is the cosine similarity to the query.
	Score float64 `json:"score" yaml:"score"`

	// DocID identifies the owning document.
	DocID string `json:"doc_id" yaml:"doc_id"`

	// ChunkID identifies the passage.
	ChunkID string `json:"chunk_id" yaml:"chunk_id"`

	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// Text is the original passage text.
	Text string `json:"text" yaml:"text"`
}
