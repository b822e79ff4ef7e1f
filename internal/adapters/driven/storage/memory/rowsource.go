// Package memory provides in-memory implementations of driven ports.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
)

// Ensure RowSource implements the interfaces.
var (
	_ driven.RowSource  = (*RowSource)(nil)
	_ driven.RowCounter = (*RowSource)(nil)
)

// RowSource keeps the row table in memory.
// Load and Save exchange copies, so callers never share backing arrays.
type RowSource struct {
	mu      sync.RWMutex
	rows    domain.RowTable
	loadErr error
	saveErr error
	loads   int
	saves   int
}

// NewRowSource creates a row source holding a copy of rows.
func NewRowSource(rows domain.RowTable) *RowSource {
	return &RowSource{rows: rows.Clone()}
}

// Load returns a copy of the stored rows.
func (s *RowSource) Load(_ context.Context) (domain.RowTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.rows.Clone(), nil
}

// Save replaces the stored rows with a copy of rows.
func (s *RowSource) Save(_ context.Context, rows domain.RowTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.rows = rows.Clone()
	return nil
}

// HasAnyRows reports whether any row is stored.
func (s *RowSource) HasAnyRows(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows) > 0, nil
}

// Location returns ":memory:".
func (s *RowSource) Location() string {
	return ":memory:"
}

// FailLoad makes subsequent loads return err (nil clears it).
func (s *RowSource) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailSave makes subsequent saves return err (nil clears it).
func (s *RowSource) FailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Loads returns how many times Load was called.
func (s *RowSource) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

// Saves returns how many saves succeeded.
func (s *RowSource) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Rows returns a copy of the stored rows without counting as a load.
func (s *RowSource) Rows() domain.RowTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows.Clone()
}
