package driving

import (
	"context"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// DocumentService creates, reads, updates and deletes documents.
//
// A missing doc_id is not an error: Get and Update report it through the
// found flag and Delete returns false.
type DocumentService interface {
	// Create chunks and stores a new document under a fresh doc_id.
	// Invalid titles or empty text fail with domain.ErrValidation.
	Create(ctx context.Context, in DocumentInput) (*domain.Document, error)

	// Get reconstructs a document from its rows.
	Get(ctx context.Context, docID string) (*domain.Document, bool, error)

	// List returns every document ordered by doc_id.
	List(ctx context.Context) ([]domain.Document, error)

	// Update replaces the title, text and optionally the department and
	// access level of an existing document.
	Update(ctx context.Context, docID string, in DocumentInput) (*domain.Document, bool, error)

	// Delete removes every row of a document.
	Delete(ctx context.Context, docID string) (bool, error)
}

// DocumentInput carries the user-supplied fields of a document.
type DocumentInput struct {
	// Title is normalised and must be at least three characters.
	Title string

	// Text is chunked and must not be blank.
	Text string

	// Department defaults to "general" on create and to the stored value
	// on update when nil.
	Department *string

	// AccessLevel defaults to "internal" on create and to the stored value
	// on update when nil.
	AccessLevel *string
}

// ImportService creates documents from uploaded files.
type ImportService interface {
	// Import extracts the text of a file and creates a document from it.
	// A non-blank in.Title overrides the extracted title; in.Text is ignored.
	// Unknown file types fail with domain.ErrUnsupportedType.
	Import(ctx context.Context, name string, data []byte, in DocumentInput) (*domain.Document, error)
}
