package driven

import (
	"context"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// RowSource persists the corpus as a flat table of chunk rows.
// The core only ever loads or saves the whole table.
type RowSource interface {
	// Load returns every row in stored order.
	// A backing store that cannot be located yields domain.ErrSourceMissing;
	// a table without a text column yields domain.ErrSchema.
	Load(ctx context.Context) (domain.RowTable, error)

	// Save replaces the stored table with rows.
	// A failed save must leave the previous table intact.
	Save(ctx context.Context, rows domain.RowTable) error

	// Location describes where rows are stored (file path or database).
	Location() string
}

// RowCounter is implemented by relational row sources.
type RowCounter interface {
	// HasAnyRows reports whether at least one chunk row is stored.
	HasAnyRows(ctx context.Context) (bool, error)
}
