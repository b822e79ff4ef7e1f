package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/logger"
)

// Seed copies every row of from into the index source when the source is
// empty, and returns the number of rows copied. A source that already
// holds rows is left alone.
func (ix *Index) Seed(ctx context.Context, from driven.RowSource) (int, error) {
	var copied int
	err := ix.Mutate(ctx, func(ctx context.Context, source driven.RowSource) error {
		if from.Location() == source.Location() {
			return errSkipInvalidate
		}

		empty, err := isEmpty(ctx, source)
		if err != nil {
			return err
		}
		if !empty {
			logger.Debug("seed: %s already has rows", source.Location())
			return errSkipInvalidate
		}

		rows, err := from.Load(ctx)
		if err != nil {
			return fmt.Errorf("load seed rows: %w", err)
		}
		if len(rows) == 0 {
			return errSkipInvalidate
		}
		if err := source.Save(ctx, rows); err != nil {
			return fmt.Errorf("save seed rows: %w", err)
		}
		copied = len(rows)
		return nil
	})
	if errors.Is(err, errSkipInvalidate) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	logger.Info("seed: copied %d rows from %s into %s", copied, from.Location(), ix.source.Location())
	return copied, nil
}

// isEmpty asks a RowCounter when available and falls back to a full load.
func isEmpty(ctx context.Context, source driven.RowSource) (bool, error) {
	if counter, ok := source.(driven.RowCounter); ok {
		has, err := counter.HasAnyRows(ctx)
		if err != nil {
			return false, fmt.Errorf("count rows: %w", err)
		}
		return !has, nil
	}
	rows, err := source.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load rows: %w", err)
	}
	return len(rows) == 0, nil
}
