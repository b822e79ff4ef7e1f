package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

type stubExtractor struct {
	result *driven.Extracted
	err    error
	names  []string
}

func (s *stubExtractor) Extensions() []string {
	return []string{".md"}
}

func (s *stubExtractor) Extract(_ context.Context, name string, _ []byte) (*driven.Extracted, error) {
	s.names = append(s.names, name)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestImportService_Import(t *testing.T) {
	f := newFixture(t, handbookRows())
	extractor := &stubExtractor{result: &driven.Extracted{
		Title:  "Laptop Policy",
		Text:   "Return your laptop on the last day.",
		Format: "markdown",
	}}
	svc := NewImportService(f.docs, extractor)

	doc, err := svc.Import(context.Background(), "laptop.md", []byte("# Laptop Policy"), driving.DocumentInput{})

	require.NoError(t, err)
	assert.Equal(t, "DOC0003", doc.ID)
	assert.Equal(t, "Laptop Policy", doc.Title)
	assert.Equal(t, "Return your laptop on the last day.", doc.Text)
	assert.Equal(t, []string{"laptop.md"}, extractor.names)
	assert.True(t, f.source.Rows().Has("DOC0003"))
}

func TestImportService_TitleOverride(t *testing.T) {
	f := newFixture(t, nil)
	svc := NewImportService(f.docs, &stubExtractor{result: &driven.Extracted{Title: "file title", Text: "Body text."}})
	dept := "it"

	doc, err := svc.Import(context.Background(), "x.md", nil, driving.DocumentInput{
		Title:      "Given Title",
		Text:       "ignored",
		Department: &dept,
	})

	require.NoError(t, err)
	assert.Equal(t, "Given Title", doc.Title)
	assert.Equal(t, "Body text.", doc.Text)
	assert.Equal(t, "it", doc.Department)
}

func TestImportService_ExtractError(t *testing.T) {
	f := newFixture(t, handbookRows())
	svc := NewImportService(f.docs, &stubExtractor{err: domain.ErrUnsupportedType})

	doc, err := svc.Import(context.Background(), "sheet.xlsx", nil, driving.DocumentInput{})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Nil(t, doc)
	assert.Equal(t, 0, f.source.Saves())
}

func TestImportService_EmptyText(t *testing.T) {
	f := newFixture(t, handbookRows())
	svc := NewImportService(f.docs, &stubExtractor{result: &driven.Extracted{Title: "Blank File", Text: "  "}})

	doc, err := svc.Import(context.Background(), "blank.md", nil, driving.DocumentInput{})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, doc)
}
