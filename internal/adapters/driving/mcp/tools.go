package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string   `json:"query" jsonschema:"the employee question to search the handbook for"`
	TopResults int      `json:"top_results,omitempty" jsonschema:"maximum number of passages to return (default 3)"`
	MinScore   *float64 `json:"min_score,omitempty" jsonschema:"minimum cosine similarity (default 0.30)"`
	MaxPerDoc  int      `json:"max_per_doc,omitempty" jsonschema:"maximum passages per document (default 1)"`
	TopChunks  int      `json:"top_chunks,omitempty" jsonschema:"size of the candidate pool (default 80)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Query   string                `json:"query"`
	Results []domain.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// DocumentIDInput selects a document.
type DocumentIDInput struct {
	DocID string `json:"doc_id" jsonschema:"document id such as DOC0001"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	Found    bool             `json:"found"`
	DocID    string           `json:"doc_id,omitempty"`
	Document *domain.Document `json:"document,omitempty"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// DocumentSummary describes a document without its text.
type DocumentSummary struct {
	DocID       string `json:"doc_id"`
	Title       string `json:"title"`
	Department  string `json:"department"`
	AccessLevel string `json:"access_level"`
	UpdatedAt   string `json:"updated_at"`
}

// DocumentInput is the input schema for create_document.
type DocumentInput struct {
	Title       string `json:"title" jsonschema:"document title, at least 3 characters"`
	Text        string `json:"text" jsonschema:"full document text; paragraphs separated by blank lines"`
	Department  string `json:"department,omitempty" jsonschema:"owning department (default general)"`
	AccessLevel string `json:"access_level,omitempty" jsonschema:"access label (default internal)"`
}

// UpdateDocumentInput is the input schema for update_document.
type UpdateDocumentInput struct {
	DocID       string `json:"doc_id" jsonschema:"document id such as DOC0001"`
	Title       string `json:"title" jsonschema:"new title, at least 3 characters"`
	Text        string `json:"text" jsonschema:"new full text"`
	Department  string `json:"department,omitempty" jsonschema:"new department; kept when omitted"`
	AccessLevel string `json:"access_level,omitempty" jsonschema:"new access label; kept when omitted"`
}

// DocumentOutput is the output schema for create_document and update_document.
type DocumentOutput struct {
	Created  bool             `json:"created,omitempty"`
	Updated  bool             `json:"updated,omitempty"`
	DocID    string           `json:"doc_id,omitempty"`
	Document *domain.Document `json:"document,omitempty"`
}

// DeleteDocumentOutput is the output schema for delete_document.
type DeleteDocumentOutput struct {
	Deleted bool   `json:"deleted"`
	DocID   string `json:"doc_id"`
}

// IndexStatusInput is the (empty) input schema for index_status.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for index_status.
type IndexStatusOutput struct {
	Ready      bool   `json:"ready"`
	BuildID    string `json:"build_id,omitempty"`
	Passages   int    `json:"passages"`
	Dimensions int    `json:"dimensions,omitempty"`
	Model      string `json:"model,omitempty"`
	Source     string `json:"source"`
	BuiltAt    string `json:"built_at,omitempty"`
	Builds     int    `json:"builds"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search over the company handbook; returns the best matching passages",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get the full text of a handbook document",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List every handbook document",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_document",
		Description: "Add a document to the handbook",
	}, s.handleCreateDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_document",
		Description: "Replace the title and text of a handbook document",
	}, s.handleUpdateDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a handbook document",
	}, s.handleDeleteDocument)

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_status",
			Description: "Report whether the semantic index is built",
		}, s.handleIndexStatus)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.ports.Search.Defaults()
	if input.TopResults > 0 {
		opts.TopResults = input.TopResults
	}
	if input.MaxPerDoc > 0 {
		opts.MaxPerDoc = input.MaxPerDoc
	}
	if input.TopChunks > 0 {
		opts.TopChunks = input.TopChunks
	}
	if input.MinScore != nil {
		opts.MinScore = *input.MinScore
	}

	query := strings.TrimSpace(input.Query)
	results, err := s.ports.Search.Search(ctx, query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	doc, found, err := s.ports.Document.Get(ctx, input.DocID)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}
	if !found {
		return nil, GetDocumentOutput{DocID: input.DocID}, nil
	}
	return nil, GetDocumentOutput{Found: true, Document: doc}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	out := ListDocumentsOutput{
		Documents: make([]DocumentSummary, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		out.Documents[i] = DocumentSummary{
			DocID:       docs[i].ID,
			Title:       docs[i].Title,
			Department:  docs[i].Department,
			AccessLevel: docs[i].AccessLevel,
			UpdatedAt:   docs[i].UpdatedAt,
		}
	}
	return nil, out, nil
}

func (s *Server) handleCreateDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, err := s.ports.Document.Create(ctx, driving.DocumentInput{
		Title:       input.Title,
		Text:        input.Text,
		Department:  optional(input.Department),
		AccessLevel: optional(input.AccessLevel),
	})
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	return nil, DocumentOutput{Created: true, DocID: doc.ID, Document: doc}, nil
}

func (s *Server) handleUpdateDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, found, err := s.ports.Document.Update(ctx, input.DocID, driving.DocumentInput{
		Title:       input.Title,
		Text:        input.Text,
		Department:  optional(input.Department),
		AccessLevel: optional(input.AccessLevel),
	})
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	if !found {
		return nil, DocumentOutput{}, fmt.Errorf("document %s: %w", input.DocID, domain.ErrNotFound)
	}
	return nil, DocumentOutput{Updated: true, DocID: doc.ID, Document: doc}, nil
}

func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	deleted, err := s.ports.Document.Delete(ctx, input.DocID)
	if err != nil {
		return nil, DeleteDocumentOutput{}, err
	}
	if !deleted {
		return nil, DeleteDocumentOutput{}, fmt.Errorf("document %s: %w", input.DocID, domain.ErrNotFound)
	}
	return nil, DeleteDocumentOutput{Deleted: true, DocID: strings.TrimSpace(input.DocID)}, nil
}

func (s *Server) handleIndexStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	status := s.ports.Index.Status()
	out := IndexStatusOutput{
		Ready:      status.Ready,
		BuildID:    status.BuildID,
		Passages:   status.Passages,
		Dimensions: status.Dimensions,
		Model:      status.Model,
		Source:     status.Source,
		Builds:     status.Builds,
	}
	if !status.BuiltAt.IsZero() {
		out.BuiltAt = status.BuiltAt.Format(time.RFC3339)
	}
	return nil, out, nil
}

// optional maps an omitted field to nil.
func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
