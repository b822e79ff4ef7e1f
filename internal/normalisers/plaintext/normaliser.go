// Package plaintext extracts documents from plain text files.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text", ".log", ".csv"}
}

// Extract returns the text unchanged apart from line ending cleanup.
// The title is taken from the file name.
func (n *Normaliser) Extract(_ context.Context, name string, data []byte) (*driven.Extracted, error) {
	if !utf8.Valid(data) {
		return nil, domain.ErrInvalidInput
	}

	content := strings.TrimPrefix(string(data), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	return &driven.Extracted{
		Title:  domain.TitleFromFileName(name),
		Text:   strings.TrimSpace(content),
		Format: "plaintext",
	}, nil
}
