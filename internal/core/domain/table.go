package domain

import (
	"fmt"
	"strings"
)

// PassageAlias is accepted as the text column when "text" is absent.
const PassageAlias = "passage"

// RawTable is an untyped table as read from a file source.
type RawTable struct {
	// Header holds the column names.
	Header []string

	// Records holds one slice of cells per row.
	Records [][]string
}

// NormalizeTable maps a raw table onto the canonical row schema.
//
// Missing optional columns are filled with their defaults. A table without
// a text column (or its "passage" alias) fails with ErrSchema.
func NormalizeTable(raw RawTable) (RowTable, error) {
	index := make(map[string]int, len(raw.Header))
	for i, name := range raw.Header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	if _, ok := index[ColumnText]; !ok {
		alias, found := index[PassageAlias]
		if !found {
			return nil, fmt.Errorf("%w: no %q column in header %v", ErrSchema, ColumnText, raw.Header)
		}
		index[ColumnText] = alias
	}

	cell := func(record []string, column string) (string, bool) {
		i, ok := index[column]
		if !ok {
			return "", false
		}
		if i >= len(record) {
			return "", true
		}
		return CleanCell(record[i]), true
	}
	withDefault := func(record []string, column, def string) string {
		v, ok := cell(record, column)
		if !ok {
			return def
		}
		return v
	}

	rows := make(RowTable, 0, len(raw.Records))
	for _, record := range raw.Records {
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, ChunkRow{
			DocID:       withDefault(record, ColumnDocID, ""),
			ChunkID:     withDefault(record, ColumnChunkID, ""),
			Title:       withDefault(record, ColumnTitle, ""),
			Department:  withDefault(record, ColumnDepartment, DefaultDepartment),
			AccessLevel: withDefault(record, ColumnAccessLevel, DefaultAccessLevel),
			Text:        withDefault(record, ColumnText, ""),
			CreatedAt:   withDefault(record, ColumnCreatedAt, ""),
			UpdatedAt:   withDefault(record, ColumnUpdatedAt, ""),
		})
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
