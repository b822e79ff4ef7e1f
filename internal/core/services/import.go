package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService turns files into documents through an Extractor.
type ImportService struct {
	docs      driving.DocumentService
	extractor driven.Extractor
}

// NewImportService creates an import service.
func NewImportService(docs driving.DocumentService, extractor driven.Extractor) *ImportService {
	return &ImportService{docs: docs, extractor: extractor}
}

// Import extracts name and creates a document from its text.
func (s *ImportService) Import(
	ctx context.Context,
	name string,
	data []byte,
	in driving.DocumentInput,
) (*domain.Document, error) {
	extracted, err := s.extractor.Extract(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}

	in.Text = extracted.Text
	if strings.TrimSpace(in.Title) == "" {
		in.Title = extracted.Title
	}
	logger.Debug("import: %s read as %s (%d chars)", name, extracted.Format, len(extracted.Text))

	doc, err := s.docs.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	return doc, nil
}
