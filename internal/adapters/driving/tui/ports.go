// Package tui provides an interactive terminal user interface for the handbook
// search index. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search ranks passages for a query.
	Search driving.SearchService

	// Document reconstructs the document behind a result (optional).
	Document driving.DocumentService

	// Index reports the semantic index state for the status bar (optional).
	Index driving.IndexService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	search driving.SearchService,
	document driving.DocumentService,
	index driving.IndexService,
) *Ports {
	return &Ports{
		Search:   search,
		Document: document,
		Index:    index,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
