// Package csvfile stores the chunk row table in a CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/logger"
)

// Ensure RowSource implements the interface.
var _ driven.RowSource = (*RowSource)(nil)

// RowSource reads and writes the row table as CSV with a header line.
type RowSource struct {
	path string
}

// NewRowSource creates a row source for the CSV file at path.
// The file does not need to exist until the first Load.
func NewRowSource(path string) *RowSource {
	return &RowSource{path: path}
}

// Location returns the CSV path.
func (s *RowSource) Location() string {
	return s.path
}

// Load reads the whole file and maps it onto the row schema.
func (s *RowSource) Load(_ context.Context) (domain.RowTable, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceMissing, s.path)
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	raw, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	rows, err := domain.NormalizeTable(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	logger.Debug("csv: loaded %d rows from %s", len(rows), s.path)
	return rows, nil
}

// Save writes rows to a temporary file next to the target and renames it
// over the target, so readers never observe a partial file.
func (s *RowSource) Save(_ context.Context, rows domain.RowTable) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if err := WriteTable(tmp, rows.Raw()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	logger.Debug("csv: saved %d rows to %s", len(rows), s.path)
	return nil
}

// ReadTable parses CSV from r. Records may have fewer cells than the header.
func ReadTable(r io.Reader) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.RawTable{}, nil
	}
	if err != nil {
		return domain.RawTable{}, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return domain.RawTable{}, err
	}
	return domain.RawTable{Header: header, Records: records}, nil
}

// WriteTable writes raw as CSV, header first.
func WriteTable(w io.Writer, raw domain.RawTable) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(raw.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(raw.Records); err != nil {
		return err
	}
	return writer.Error()
}
