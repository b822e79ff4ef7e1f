package mcp

import (
	"context"
	"strings"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
	lastQ    string
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQ = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Defaults() domain.SearchOptions {
	return domain.DefaultSearchOptions()
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	err       error
	lastInput driving.DocumentInput
}

func (m *mockDocumentService) find(docID string) *domain.Document {
	for i := range m.documents {
		if m.documents[i].ID == strings.TrimSpace(docID) {
			doc := m.documents[i]
			return &doc
		}
	}
	return nil
}

func (m *mockDocumentService) Create(_ context.Context, in driving.DocumentInput) (*domain.Document, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{ID: "DOC0100", Title: in.Title, Text: in.Text}, nil
}

func (m *mockDocumentService) Get(_ context.Context, docID string) (*domain.Document, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	doc := m.find(docID)
	return doc, doc != nil, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Update(
	_ context.Context,
	docID string,
	in driving.DocumentInput,
) (*domain.Document, bool, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, false, m.err
	}
	doc := m.find(docID)
	if doc == nil {
		return nil, false, nil
	}
	doc.Title = in.Title
	doc.Text = in.Text
	return doc, true, nil
}

func (m *mockDocumentService) Delete(_ context.Context, docID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.find(docID) != nil, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status driving.IndexStatus
}

func (m *mockIndexService) Warmup(context.Context) error {
	return nil
}

func (m *mockIndexService) Rebuild(context.Context) error {
	return nil
}

func (m *mockIndexService) Invalidate() {}

func (m *mockIndexService) Status() driving.IndexStatus {
	return m.status
}

func sampleDocuments() []domain.Document {
	return []domain.Document{
		{
			ID:          "DOC0001",
			Title:       "Vacation Policy",
			Department:  "hr",
			AccessLevel: "internal",
			Text:        "Submit a request 14 days in advance.",
			CreatedAt:   "2024-01-10",
			UpdatedAt:   "2024-01-10",
		},
	}
}
