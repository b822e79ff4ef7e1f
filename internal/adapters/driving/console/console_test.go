package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	queries []string
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	_ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

func (m *mockSearchService) Defaults() domain.SearchOptions {
	return domain.DefaultSearchOptions()
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{Score: 0.91, DocID: "DOC0001", ChunkID: "DOC0001_C01", Title: "Vacation Policy", Text: "Submit a request."},
		{Score: 0.42, DocID: "DOC0002", ChunkID: "DOC0002_C03", Title: "VPN Access", Text: "Open a ticket."},
	}
}

func runConsole(t *testing.T, search *mockSearchService, input string) string {
	t.Helper()
	var out bytes.Buffer
	c, err := New(search, NewPlainPresenter(&out), strings.NewReader(input), &out,
		WithSessionInfo(SessionInfo{Model: "hashing-384", Source: "data/docs.csv"}))
	require.NoError(t, err)

	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func TestNew_RequiresSearch(t *testing.T) {
	_, err := New(nil, nil, strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

// ==================== REPL ====================

func TestConsole_Run(t *testing.T) {
	t.Run("prints header and results", func(t *testing.T) {
		search := &mockSearchService{results: sampleResults()}

		out := runConsole(t, search, "vacation\nexit\n")

		assert.Contains(t, out, "Model: hashing-384")
		assert.Contains(t, out, "Source: data/docs.csv")
		assert.Contains(t, out, "1. Score: 0.910")
		assert.Contains(t, out, "DOC0001 | DOC0001_C01 | Vacation Policy")
		assert.Contains(t, out, "2. Score: 0.420")
		assert.Contains(t, out, strings.Repeat("-", SeparatorWidth))
		assert.Contains(t, out, "Done in ")
		assert.Contains(t, out, "Bye")
		assert.Equal(t, []string{"vacation"}, search.queries)
	})

	t.Run("blank lines do not search", func(t *testing.T) {
		search := &mockSearchService{}

		runConsole(t, search, "\n   \nquit\n")

		assert.Empty(t, search.queries)
	})

	t.Run("exit commands are case insensitive", func(t *testing.T) {
		for _, cmd := range []string{"exit", "QUIT", ":q"} {
			search := &mockSearchService{}

			out := runConsole(t, search, cmd+"\nnever searched\n")

			assert.Empty(t, search.queries, cmd)
			assert.Contains(t, out, "Bye", cmd)
		}
	})

	t.Run("help and clear", func(t *testing.T) {
		search := &mockSearchService{}

		out := runConsole(t, search, "help\nclear\n")

		assert.Contains(t, out, "How to use")
		assert.Contains(t, out, clearSequence)
		assert.Equal(t, 2, strings.Count(out, "Model: hashing-384"), "header is reprinted after clear")
		assert.Empty(t, search.queries)
	})

	t.Run("no results", func(t *testing.T) {
		out := runConsole(t, &mockSearchService{}, "nothing\n")

		assert.Contains(t, out, "No results found.")
	})

	t.Run("search errors keep the loop alive", func(t *testing.T) {
		search := &mockSearchService{err: errors.New("embedding service unavailable")}

		out := runConsole(t, search, "first\nsecond\n")

		assert.Equal(t, []string{"first", "second"}, search.queries)
		assert.Equal(t, 2, strings.Count(out, "Error: embedding service unavailable"))
	})

	t.Run("EOF ends the session", func(t *testing.T) {
		out := runConsole(t, &mockSearchService{}, "")

		assert.Contains(t, out, "Bye")
	})
}

func TestConsole_CancelledContext(t *testing.T) {
	search := &mockSearchService{}
	var out bytes.Buffer
	c, err := New(search, NewPlainPresenter(&out), strings.NewReader("query\n"), &out)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Run(ctx))
	assert.Empty(t, search.queries)
}

func TestConsole_ElapsedUsesClock(t *testing.T) {
	var out bytes.Buffer
	c, err := New(&mockSearchService{results: sampleResults()}, NewPlainPresenter(&out),
		strings.NewReader("q\n"), &out)
	require.NoError(t, err)

	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	calls := 0
	c.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 250 * time.Millisecond)
	}

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Done in 0.250s")
}

// ==================== presenters ====================

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"long", "abcdef", 5, "abcde"},
		{"multibyte", "приветствие", 6, "привет"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.n))
		})
	}
}

func TestPlainPresenter_TruncatesText(t *testing.T) {
	var out bytes.Buffer
	long := strings.Repeat("я", MaxTextRunes+50)

	NewPlainPresenter(&out).Results([]domain.SearchResult{{Text: long}}, time.Second)

	assert.Contains(t, out.String(), strings.Repeat("я", MaxTextRunes)+"\n")
	assert.NotContains(t, out.String(), strings.Repeat("я", MaxTextRunes+1))
}

func TestRichPresenter_RendersContent(t *testing.T) {
	var out bytes.Buffer
	p := NewRichPresenter(&out)

	p.Header(SessionInfo{Model: "hashing-384", Source: "data/docs.csv"})
	p.Results(sampleResults(), 1500*time.Millisecond)
	p.NoResults()
	p.Error(errors.New("boom"))
	p.Bye()

	s := out.String()
	assert.Contains(t, s, "hashing-384")
	assert.Contains(t, s, "0.910")
	assert.Contains(t, s, "DOC0002 | DOC0002_C03 | VPN Access")
	assert.Contains(t, s, "Done in 1.500s")
	assert.Contains(t, s, "No results found.")
	assert.Contains(t, s, "boom")
	assert.Contains(t, s, "Bye")
}

func TestRichPresenter_ScoreBands(t *testing.T) {
	p := NewRichPresenter(&bytes.Buffer{})

	assert.Equal(t, p.high, p.scoreStyle(0.80))
	assert.Equal(t, p.medium, p.scoreStyle(0.79))
	assert.Equal(t, p.medium, p.scoreStyle(0.60))
	assert.Equal(t, p.low, p.scoreStyle(0.59))
}

func TestSelectPresenter(t *testing.T) {
	var buf bytes.Buffer

	assert.IsType(t, &PlainPresenter{}, SelectPresenter(&buf, domain.PresenterPlain))
	assert.IsType(t, &RichPresenter{}, SelectPresenter(&buf, domain.PresenterRich))
	assert.IsType(t, &PlainPresenter{}, SelectPresenter(&buf, domain.PresenterAuto), "buffers are not terminals")
}
