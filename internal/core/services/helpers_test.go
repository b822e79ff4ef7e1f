package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
)

// keywordEmbedder maps text to keyword occurrence counts so that texts
// sharing keywords are similar.
type keywordEmbedder struct {
	mu       sync.Mutex
	keywords []string
	batches  int
	queries  []string
	batchErr error
	embedErr error
	closed   bool

	// shortAt makes the vector at this global passage position one
	// dimension short (negative disables).
	shortAt int
	seen    int
}

func newKeywordEmbedder(keywords ...string) *keywordEmbedder {
	if len(keywords) == 0 {
		keywords = []string{"vacation", "request", "expense", "report", "laptop", "password"}
	}
	return &keywordEmbedder{keywords: keywords, shortAt: -1}
}

func (e *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.keywords))
	for i, kw := range e.keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	return vec
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	e.queries = append(e.queries, text)
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	e.batches++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
		if e.seen == e.shortAt {
			out[i] = out[i][:len(out[i])-1]
		}
		e.seen++
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int {
	return len(e.keywords)
}

func (e *keywordEmbedder) ModelName() string {
	return "keyword-test"
}

func (e *keywordEmbedder) Ping(context.Context) error {
	return nil
}

func (e *keywordEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *keywordEmbedder) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches
}

// countingLoader returns a ModelLoader handing out model and counting calls.
func countingLoader(model driven.EmbeddingService, calls *int) ModelLoader {
	var mu sync.Mutex
	return func(context.Context) (driven.EmbeddingService, error) {
		mu.Lock()
		defer mu.Unlock()
		*calls++
		return model, nil
	}
}

func failingLoader(err error) ModelLoader {
	return func(context.Context) (driven.EmbeddingService, error) {
		return nil, err
	}
}

var errBoom = errors.New("boom")

func fixedClock(day string) func() time.Time {
	t, err := time.Parse(domain.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func handbookRows() domain.RowTable {
	return domain.RowTable{
		{
			DocID:       "DOC0001",
			ChunkID:     "DOC0001_C01",
			Title:       "Vacation Policy",
			Department:  "hr",
			AccessLevel: "internal",
			Text:        "Submit a vacation request 14 days in advance.",
			CreatedAt:   "2024-01-10",
			UpdatedAt:   "2024-01-10",
		},
		{
			DocID:       "DOC0002",
			ChunkID:     "DOC0002_C01",
			Title:       "Expense Reports",
			Department:  "finance",
			AccessLevel: "internal",
			Text:        "Expense report forms are due monthly.",
			CreatedAt:   "2024-02-01",
			UpdatedAt:   "2024-02-01",
		},
		{
			DocID:       "DOC0002",
			ChunkID:     "DOC0002_C02",
			Title:       "Expense Reports",
			Department:  "finance",
			AccessLevel: "internal",
			Text:        "Attach receipts to every expense report.",
			CreatedAt:   "2024-02-01",
			UpdatedAt:   "2024-02-01",
		},
	}
}

type fixture struct {
	source   *memory.RowSource
	embedder *keywordEmbedder
	loads    int
	index    *Index
	search   *SearchService
	docs     *DocumentService
}

func newFixture(t *testing.T, rows domain.RowTable, opts ...IndexOption) *fixture {
	t.Helper()
	f := &fixture{
		source:   memory.NewRowSource(rows),
		embedder: newKeywordEmbedder(),
	}
	f.index = NewIndex(f.source, countingLoader(f.embedder, &f.loads), opts...)
	f.search = NewSearchService(f.index, domain.SearchSettings{Options: domain.DefaultSearchOptions()})
	f.docs = NewDocumentService(f.index, WithClock(fixedClock("2024-06-01")))
	t.Cleanup(func() {
		require.NoError(t, f.index.Close())
	})
	return f
}
