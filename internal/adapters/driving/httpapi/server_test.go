package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

func newTestServer(t *testing.T, search *mockSearchService, docs *mockDocumentService, opts ...Option) *Server {
	t.Helper()
	server, err := NewServer(&Ports{
		Search:   search,
		Document: docs,
		Index:    &mockIndexService{status: driving.IndexStatus{Ready: true, Passages: 3}},
	}, opts...)
	require.NoError(t, err)
	return server
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestNewServer_RequiresServices(t *testing.T) {
	_, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrMissingService)

	_, err = NewServer(&Ports{Search: &mockSearchService{}})
	assert.ErrorIs(t, err, ErrMissingService)
}

// ==================== search ====================

func TestSearch(t *testing.T) {
	t.Run("returns query and results", func(t *testing.T) {
		search := &mockSearchService{results: []domain.SearchResult{
			{Score: 0.9, DocID: "DOC0001", ChunkID: "DOC0001_C01", Title: "Vacation Policy", Text: "Submit"},
		}}
		server := newTestServer(t, search, &mockDocumentService{})

		rec, body := do(t, server.Handler(), http.MethodPost, "/search", `{"query":"vacation"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "vacation", body["query"])
		results := body["results"].([]any)
		require.Len(t, results, 1)
		assert.Equal(t, "DOC0001_C01", results[0].(map[string]any)["chunk_id"])
		assert.Equal(t, domain.DefaultSearchOptions(), search.lastOpts)
	})

	t.Run("overrides only supplied options", func(t *testing.T) {
		search := &mockSearchService{}
		server := newTestServer(t, search, &mockDocumentService{})

		rec, _ := do(t, server.Handler(), http.MethodPost, "/search", `{"query":"q","top_results":5,"min_score":0}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, search.lastOpts.TopResults)
		assert.Equal(t, 0.0, search.lastOpts.MinScore)
		assert.Equal(t, domain.DefaultMaxPerDoc, search.lastOpts.MaxPerDoc)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{}, &mockDocumentService{})

		rec, body := do(t, server.Handler(), http.MethodPost, "/search", `{"query":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["detail"], "invalid request body")
	})
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput), http.StatusBadRequest},
		{"embedding unavailable", domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
		{"index build", fmt.Errorf("%w: boom", domain.ErrIndexBuild), http.StatusServiceUnavailable},
		{"source missing", domain.ErrSourceMissing, http.StatusServiceUnavailable},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &mockSearchService{err: tt.err}, &mockDocumentService{})

			rec, body := do(t, server.Handler(), http.MethodPost, "/search", `{"query":"q"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestDetailOf_StripsSentinelPrefix(t *testing.T) {
	err := fmt.Errorf("%w: title must be at least 3 characters long", domain.ErrValidation)
	assert.Equal(t, "title must be at least 3 characters long", detailOf(err))
	assert.Equal(t, "boom", detailOf(errors.New("boom")))
}

// ==================== documents ====================

func TestListDocuments(t *testing.T) {
	t.Run("wraps documents", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{}, &mockDocumentService{documents: sampleDocuments()})

		rec, body := do(t, server.Handler(), http.MethodGet, "/documents", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		docs := body["documents"].([]any)
		require.Len(t, docs, 1)
		assert.Equal(t, "DOC0001", docs[0].(map[string]any)["doc_id"])
	})

	t.Run("empty corpus is an empty list", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{}, &mockDocumentService{})

		_, body := do(t, server.Handler(), http.MethodGet, "/documents", "")

		assert.Equal(t, []any{}, body["documents"])
	})
}

func TestGetDocument(t *testing.T) {
	server := newTestServer(t, &mockSearchService{}, &mockDocumentService{documents: sampleDocuments()})

	rec, body := do(t, server.Handler(), http.MethodGet, "/documents/DOC0001", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "Vacation Policy", body["document"].(map[string]any)["title"])

	rec, body = do(t, server.Handler(), http.MethodGet, "/documents/DOC0404", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["found"])
	assert.Equal(t, "DOC0404", body["doc_id"])
}

func TestCreateDocument(t *testing.T) {
	t.Run("creates document", func(t *testing.T) {
		docs := &mockDocumentService{}
		server := newTestServer(t, &mockSearchService{}, docs)

		rec, body := do(t, server.Handler(), http.MethodPost, "/documents",
			`{"title":"Travel Policy","text":"Book through the portal.","department":"finance"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["created"])
		assert.Equal(t, "DOC0100", body["document"].(map[string]any)["doc_id"])
		require.NotNil(t, docs.lastInput.Department)
		assert.Equal(t, "finance", *docs.lastInput.Department)
		assert.Nil(t, docs.lastInput.AccessLevel)
	})

	t.Run("validation failure is a bad request", func(t *testing.T) {
		docs := &mockDocumentService{err: fmt.Errorf("%w: document content is empty", domain.ErrValidation)}
		server := newTestServer(t, &mockSearchService{}, docs)

		rec, body := do(t, server.Handler(), http.MethodPost, "/documents", `{"title":"Travel","text":""}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "document content is empty", body["detail"])
	})
}

func TestUpdateDocument(t *testing.T) {
	server := newTestServer(t, &mockSearchService{}, &mockDocumentService{documents: sampleDocuments()})

	rec, body := do(t, server.Handler(), http.MethodPut, "/documents/DOC0001", `{"title":"Leave Policy","text":"New"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["updated"])
	assert.Equal(t, "Leave Policy", body["document"].(map[string]any)["title"])

	rec, body = do(t, server.Handler(), http.MethodPut, "/documents/DOC0404", `{"title":"Leave Policy","text":"New"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Document not found", body["detail"])
}

func TestDeleteDocument(t *testing.T) {
	server := newTestServer(t, &mockSearchService{}, &mockDocumentService{documents: sampleDocuments()})

	rec, body := do(t, server.Handler(), http.MethodDelete, "/documents/DOC0001", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["deleted"])
	assert.Equal(t, "DOC0001", body["doc_id"])

	rec, _ = do(t, server.Handler(), http.MethodDelete, "/documents/DOC0404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==================== health ====================

func TestHealth(t *testing.T) {
	server := newTestServer(t, &mockSearchService{}, &mockDocumentService{})

	rec, body := do(t, server.Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	index := body["index"].(map[string]any)
	assert.Equal(t, true, index["ready"])
	assert.EqualValues(t, 3, index["passages"])
}
