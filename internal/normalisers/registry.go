package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/normalisers/docx"
	"github.com/custodia-labs/handbook/internal/normalisers/html"
	"github.com/custodia-labs/handbook/internal/normalisers/markdown"
	"github.com/custodia-labs/handbook/internal/normalisers/pdf"
	"github.com/custodia-labs/handbook/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Registry selects an extractor by file extension.
// It is itself an Extractor covering every registered format.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry creates a registry holding extractors. Later registrations
// win for a shared extension.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with every built-in format.
func Default() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pdf.New(),
	)
}

// Register adds e for each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// For returns the extractor for a file name.
func (r *Registry) For(name string) (driven.Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return e, ok
}

// Extensions returns every supported extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract dispatches to the extractor registered for name's extension.
func (r *Registry) Extract(ctx context.Context, name string, data []byte) (*driven.Extracted, error) {
	e, ok := r.For(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			domain.ErrUnsupportedType, filepath.Ext(name), strings.Join(r.Extensions(), ", "))
	}
	return e.Extract(ctx, name, data)
}
