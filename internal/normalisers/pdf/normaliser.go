// Package pdf extracts documents from PDF files using ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns the plain text of every page, pages separated by a
// blank line. The title comes from the document info dictionary.
func (n *Normaliser) Extract(ctx context.Context, name string, data []byte) (result *driven.Extracted, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: unreadable pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a pdf: %w", domain.ErrInvalidInput, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i, err)
		}
		if text = cleanPage(text); text != "" {
			pages = append(pages, text)
		}
	}
	logger.Debug("pdf: %s has %d pages with text", name, len(pages))

	return &driven.Extracted{
		Title:  documentTitle(reader, name),
		Text:   strings.Join(pages, "\n\n"),
		Format: "pdf",
	}, nil
}

func documentTitle(reader *pdf.Reader, name string) string {
	title := domain.NormalizeText(reader.Trailer().Key("Info").Key("Title").Text())
	if title != "" {
		return title
	}
	return domain.TitleFromFileName(name)
}

// cleanPage drops blank lines and trailing spaces from extracted page text.
func cleanPage(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
