package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical column names of the persisted row table.
// Additions or renames are breaking changes to the storage contract.
const (
	ColumnDocID       = "doc_id"
	ColumnChunkID     = "chunk_id"
	ColumnTitle       = "title"
	ColumnDepartment  = "department"
	ColumnAccessLevel = "access_level"
	ColumnText        = "text"
	ColumnCreatedAt   = "created_at"
	ColumnUpdatedAt   = "updated_at"
)

// Columns is the ordered list of persisted columns.
var Columns = []string{
	ColumnDocID,
	ColumnChunkID,
	ColumnTitle,
	ColumnDepartment,
	ColumnAccessLevel,
	ColumnText,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

// Default values for the administrative columns.
const (
	DefaultDepartment  = "general"
	DefaultAccessLevel = "internal"
)

// DateLayout is the format of created_at and updated_at.
const DateLayout = "2006-01-02"

// ChunkRow is the atomic storage unit: one passage of one document.
// All rows of a document carry identical title, department, access level
// and timestamps.
type ChunkRow struct {
	// DocID identifies the owning document (DOC0001).
	DocID string `json:"doc_id" yaml:"doc_id"`

	// ChunkID is {DocID}_C{NN}, unique across the table.
	ChunkID string `json:"chunk_id" yaml:"chunk_id"`

	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// Department is the owning department.
	Department string `json:"department" yaml:"department"`

	// AccessLevel is the document's access label.
	AccessLevel string `json:"access_level" yaml:"access_level"`

	// Text is the passage text as stored.
	Text string `json:"text" yaml:"text"`

	// CreatedAt is the creation date (YYYY-MM-DD).
	CreatedAt string `json:"created_at" yaml:"created_at"`

	// UpdatedAt is the last update date (YYYY-MM-DD).
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// Values returns the row's cells in Columns order.
func (r ChunkRow) Values() []string {
	return []string{
		r.DocID,
		r.ChunkID,
		r.Title,
		r.Department,
		r.AccessLevel,
		r.Text,
		r.CreatedAt,
		r.UpdatedAt,
	}
}

// ChunkID builds the id of the n-th (1-based) chunk of a document.
func ChunkID(docID string, n int) string {
	return fmt.Sprintf("%s_C%02d", docID, n)
}

// ChunkIndex recovers the chunk position from the trailing digits of a
// chunk id. Ids without trailing digits sort first with index 0.
func ChunkIndex(chunkID string) int {
	end := len(chunkID)
	start := end
	for start > 0 && chunkID[start-1] >= '0' && chunkID[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n, err := strconv.Atoi(chunkID[start:end])
	if err != nil {
		return 0
	}
	return n
}

// NormalizeText collapses every run of whitespace into a single space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanCell trims a raw table cell and maps null markers to empty.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}

// Today formats t as a created_at/updated_at date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
