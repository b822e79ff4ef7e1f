package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

type searchRequest struct {
	Query      string   `json:"query"`
	TopResults int      `json:"top_results,omitempty"`
	MinScore   *float64 `json:"min_score,omitempty"`
	MaxPerDoc  int      `json:"max_per_doc,omitempty"`
	TopChunks  int      `json:"top_chunks,omitempty"`
}

type searchResponse struct {
	Query   string                `json:"query"`
	Results []domain.SearchResult `json:"results"`
}

type documentRequest struct {
	Title       string  `json:"title"`
	Text        string  `json:"text"`
	Department  *string `json:"department,omitempty"`
	AccessLevel *string `json:"access_level,omitempty"`
}

func (r documentRequest) input() driving.DocumentInput {
	return driving.DocumentInput{
		Title:       r.Title,
		Text:        r.Text,
		Department:  r.Department,
		AccessLevel: r.AccessLevel,
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}

	opts := s.ports.Search.Defaults()
	if req.TopResults != 0 {
		opts.TopResults = req.TopResults
	}
	if req.MaxPerDoc != 0 {
		opts.MaxPerDoc = req.MaxPerDoc
	}
	if req.TopChunks != 0 {
		opts.TopChunks = req.TopChunks
	}
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}

	results, err := s.ports.Search.Search(r.Context(), req.Query, opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: req.Query, Results: results})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Document.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, found, err := s.ports.Document.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"found": false, "doc_id": id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "document": doc})
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decode(w, r, &req) {
		return
	}

	doc, err := s.ports.Document.Create(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"created": true, "document": doc})
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decode(w, r, &req) {
		return
	}

	doc, found, err := s.ports.Document.Update(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true, "document": doc})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.ports.Document.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "doc_id": id})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.ports.Index != nil {
		body["index"] = s.ports.Index.Status()
	}
	writeJSON(w, http.StatusOK, body)
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrIndexBuild),
		errors.Is(err, domain.ErrSourceMissing):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Error(err, "http: request failed")
	}
	writeError(w, status, detailOf(err))
}

// detailOf drops the sentinel prefix so clients see the specific reason.
func detailOf(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrValidation, domain.ErrInvalidInput} {
		if prefix := sentinel.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
