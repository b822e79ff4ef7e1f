package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
	"github.com/custodia-labs/handbook/internal/postprocessors/chunker"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// errSkipInvalidate aborts a mutation that found nothing to change.
var errSkipInvalidate = errors.New("no change")

// MinTitleLength is the minimum number of characters in a normalised title.
const MinTitleLength = 3

// DocumentService manages documents stored as chunk rows.
// Every mutation runs under the index write lock and invalidates the index.
type DocumentService struct {
	index   *Index
	chunker *chunker.Processor
	now     func() time.Time
}

// DocumentOption configures a DocumentService.
type DocumentOption func(*DocumentService)

// WithChunker sets the splitter used for document text.
func WithChunker(p *chunker.Processor) DocumentOption {
	return func(s *DocumentService) {
		if p != nil {
			s.chunker = p
		}
	}
}

// WithClock overrides the clock used for created_at and updated_at.
func WithClock(now func() time.Time) DocumentOption {
	return func(s *DocumentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDocumentService creates a document service that shares the lock of index.
func NewDocumentService(index *Index, opts ...DocumentOption) *DocumentService {
	s := &DocumentService{
		index:   index,
		chunker: chunker.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, assigns the next doc_id and appends its rows.
func (s *DocumentService) Create(ctx context.Context, in driving.DocumentInput) (*domain.Document, error) {
	title, chunks, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var doc *domain.Document
	err = s.index.Mutate(ctx, func(ctx context.Context, source driven.RowSource) error {
		table, err := source.Load(ctx)
		if err != nil {
			return fmt.Errorf("load rows: %w", err)
		}

		docID := table.NextDocID()
		today := domain.Today(s.now())
		rows := buildRows(docID, title, orDefault(in.Department, domain.DefaultDepartment),
			orDefault(in.AccessLevel, domain.DefaultAccessLevel), chunks, today, today)

		updated := append(table.Clone(), rows...)
		if err := source.Save(ctx, updated); err != nil {
			return fmt.Errorf("save rows: %w", err)
		}

		created, ok := updated.Reconstruct(docID)
		if !ok {
			return fmt.Errorf("reconstruct %s after create: %w", docID, domain.ErrNotFound)
		}
		doc = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("document: created %s with %d chunks", doc.ID, len(chunks))
	return doc, nil
}

// Get reconstructs a document. A blank or unknown id reports found=false.
func (s *DocumentService) Get(ctx context.Context, docID string) (*domain.Document, bool, error) {
	target := strings.TrimSpace(docID)
	if target == "" {
		return nil, false, nil
	}

	var table domain.RowTable
	err := s.index.View(ctx, func(ctx context.Context, source driven.RowSource) error {
		var err error
		table, err = source.Load(ctx)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("load rows: %w", err)
	}

	doc, ok := table.Reconstruct(target)
	return doc, ok, nil
}

// List returns every document ordered by doc_id.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	var table domain.RowTable
	err := s.index.View(ctx, func(ctx context.Context, source driven.RowSource) error {
		var err error
		table, err = source.Load(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	return table.Documents(), nil
}

// Update replaces a document's rows. created_at is kept; chunk ids are
// renumbered from 1. Nil department or access level keep stored values.
func (s *DocumentService) Update(
	ctx context.Context,
	docID string,
	in driving.DocumentInput,
) (*domain.Document, bool, error) {
	target := strings.TrimSpace(docID)
	if target == "" {
		return nil, false, nil
	}

	title, chunks, err := s.validate(in)
	if err != nil {
		return nil, false, err
	}

	var doc *domain.Document
	found := false
	err = s.index.Mutate(ctx, func(ctx context.Context, source driven.RowSource) error {
		table, err := source.Load(ctx)
		if err != nil {
			return fmt.Errorf("load rows: %w", err)
		}

		existing := table.RowsFor(target)
		if len(existing) == 0 {
			return errSkipInvalidate
		}
		found = true

		first := existing[0]
		department := orDefault(in.Department, orFallback(first.Department, domain.DefaultDepartment))
		access := orDefault(in.AccessLevel, orFallback(first.AccessLevel, domain.DefaultAccessLevel))
		now := s.now()
		created := domain.CleanCell(first.CreatedAt)
		if created == "" {
			created = domain.Today(now)
		}

		rows := buildRows(target, title, department, access, chunks, created, domain.Today(now))
		updated := append(table.Without(target), rows...)
		if err := source.Save(ctx, updated); err != nil {
			return fmt.Errorf("save rows: %w", err)
		}

		saved, ok := updated.Reconstruct(target)
		if !ok {
			return fmt.Errorf("reconstruct %s after update: %w", target, domain.ErrNotFound)
		}
		doc = saved
		return nil
	})
	if errors.Is(err, errSkipInvalidate) {
		return nil, false, nil
	}
	if err != nil {
		return nil, found, err
	}

	logger.Info("document: updated %s with %d chunks", doc.ID, len(chunks))
	return doc, true, nil
}

// Delete removes every row of a document. Unknown ids return false.
func (s *DocumentService) Delete(ctx context.Context, docID string) (bool, error) {
	target := strings.TrimSpace(docID)
	if target == "" {
		return false, nil
	}

	err := s.index.Mutate(ctx, func(ctx context.Context, source driven.RowSource) error {
		table, err := source.Load(ctx)
		if err != nil {
			return fmt.Errorf("load rows: %w", err)
		}
		if !table.Has(target) {
			return errSkipInvalidate
		}
		if err := source.Save(ctx, table.Without(target)); err != nil {
			return fmt.Errorf("save rows: %w", err)
		}
		return nil
	})
	if errors.Is(err, errSkipInvalidate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger.Info("document: deleted %s", target)
	return true, nil
}

// validate normalises the title and chunks the text before any table access.
func (s *DocumentService) validate(in driving.DocumentInput) (string, []string, error) {
	title := domain.NormalizeText(in.Title)
	if utf8.RuneCountInString(title) < MinTitleLength {
		return "", nil, fmt.Errorf("%w: title must be at least %d characters long", domain.ErrValidation, MinTitleLength)
	}
	chunks := s.chunker.Split(in.Text)
	if len(chunks) == 0 {
		return "", nil, fmt.Errorf("%w: document content is empty", domain.ErrValidation)
	}
	return title, chunks, nil
}

func buildRows(docID, title, department, access string, chunks []string, created, updated string) domain.RowTable {
	rows := make(domain.RowTable, 0, len(chunks))
	for i, chunk := range chunks {
		rows = append(rows, domain.ChunkRow{
			DocID:       docID,
			ChunkID:     domain.ChunkID(docID, i+1),
			Title:       title,
			Department:  department,
			AccessLevel: access,
			Text:        chunk,
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
	}
	return rows
}

// orDefault returns the trimmed value of p, or fallback when p is nil or blank.
func orDefault(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return orFallback(*p, fallback)
}

func orFallback(s, fallback string) string {
	if v := domain.CleanCell(s); v != "" {
		return v
	}
	return fallback
}
