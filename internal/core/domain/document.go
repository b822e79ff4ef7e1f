package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// UntitledFormat names a document whose rows carry no title.
const UntitledFormat = "Документ %s"

var docIDPattern = regexp.MustCompile(`^DOC(\d+)$`)

// Document is a virtual entity: every chunk row sharing a doc_id.
// Its Text is the chunk texts joined in chunk order with a blank line.
type Document struct {
	// ID is the document identifier (DOC0001).
	ID string `json:"doc_id" yaml:"doc_id"`

	// Title is the normalised document title.
	Title string `json:"title" yaml:"title"`

	// Department is the owning department.
	Department string `json:"department" yaml:"department"`

	// AccessLevel is the document's access label.
	AccessLevel string `json:"access_level" yaml:"access_level"`

	// Text is the reconstructed full text.
	Text string `json:"text" yaml:"text"`

	// CreatedAt is fixed when the document is created.
	CreatedAt string `json:"created_at" yaml:"created_at"`

	// UpdatedAt is refreshed on every update.
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// RowTable is the full set of chunk rows, the canonical persisted
// representation of the corpus. Row order is significant: the embedding
// matrix is built in the same order.
type RowTable []ChunkRow

// Clone returns an independent copy of the table.
func (t RowTable) Clone() RowTable {
	if t == nil {
		return nil
	}
	out := make(RowTable, len(t))
	copy(out, t)
	return out
}

// Has reports whether any row belongs to docID.
func (t RowTable) Has(docID string) bool {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return false
	}
	for i := range t {
		if t[i].DocID == docID {
			return true
		}
	}
	return false
}

// RowsFor returns the rows of docID in table order.
func (t RowTable) RowsFor(docID string) RowTable {
	var rows RowTable
	for i := range t {
		if t[i].DocID == docID {
			rows = append(rows, t[i])
		}
	}
	return rows
}

// Without returns a new table with every row of docID removed.
func (t RowTable) Without(docID string) RowTable {
	out := make(RowTable, 0, len(t))
	for i := range t {
		if t[i].DocID != docID {
			out = append(out, t[i])
		}
	}
	return out
}

// WithChunkIDs returns a copy of the table in which every blank or repeated
// chunk id is replaced by {doc_id}_C{NN}, numbered per document in table
// order. The first occurrence of an id is kept, and generated ids skip any
// id already in use.
func (t RowTable) WithChunkIDs() RowTable {
	out := t.Clone()

	used := make(map[string]bool, len(out))
	needsID := make([]bool, len(out))
	for i := range out {
		id := strings.TrimSpace(out[i].ChunkID)
		if id == "" || used[id] {
			needsID[i] = true
			continue
		}
		used[id] = true
	}

	position := make(map[string]int)
	for i := range out {
		position[out[i].DocID]++
		if !needsID[i] {
			continue
		}
		n := position[out[i].DocID]
		id := ChunkID(out[i].DocID, n)
		for used[id] {
			n++
			id = ChunkID(out[i].DocID, n)
		}
		used[id] = true
		out[i].ChunkID = id
	}
	return out
}

// NextDocID returns the next unused DOC{NNNN} id. Ids that do not match
// the DOC pattern are ignored.
func (t RowTable) NextDocID() string {
	highest := 0
	for i := range t {
		m := docIDPattern.FindStringSubmatch(strings.TrimSpace(t[i].DocID))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("DOC%04d", highest+1)
}

// Reconstruct assembles the document docID from its rows.
// Returns false when the id is blank or no rows match.
func (t RowTable) Reconstruct(docID string) (*Document, bool) {
	target := strings.TrimSpace(docID)
	if target == "" {
		return nil, false
	}
	rows := t.RowsFor(target)
	if len(rows) == 0 {
		return nil, false
	}
	doc := documentFromRows(target, rows, time.Now())
	return &doc, true
}

// Documents returns one document per distinct non-blank doc_id,
// sorted by doc_id.
func (t RowTable) Documents() []Document {
	groups := make(map[string]RowTable)
	var ids []string
	for i := range t {
		id := strings.TrimSpace(t[i].DocID)
		if id == "" {
			continue
		}
		if _, ok := groups[id]; !ok {
			ids = append(ids, id)
		}
		groups[id] = append(groups[id], t[i])
	}
	sort.Strings(ids)

	now := time.Now()
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, documentFromRows(id, groups[id], now))
	}
	return docs
}

// Raw converts the table into its canonical untyped form.
func (t RowTable) Raw() RawTable {
	raw := RawTable{
		Header:  append([]string(nil), Columns...),
		Records: make([][]string, 0, len(t)),
	}
	for i := range t {
		raw.Records = append(raw.Records, t[i].Values())
	}
	return raw
}

func documentFromRows(docID string, rows RowTable, now time.Time) Document {
	first := rows[0]

	title := NormalizeText(CleanCell(first.Title))
	if title == "" {
		title = fmt.Sprintf(UntitledFormat, docID)
	}
	department := CleanCell(first.Department)
	if department == "" {
		department = DefaultDepartment
	}
	access := CleanCell(first.AccessLevel)
	if access == "" {
		access = DefaultAccessLevel
	}
	created := CleanCell(first.CreatedAt)
	if created == "" {
		created = Today(now)
	}
	updated := CleanCell(first.UpdatedAt)
	if updated == "" {
		updated = created
	}

	return Document{
		ID:          docID,
		Title:       title,
		Department:  department,
		AccessLevel: access,
		Text:        joinChunks(rows),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

// joinChunks orders rows by chunk index (then chunk id) and joins their
// non-empty normalised texts with a blank line.
func joinChunks(rows RowTable) string {
	ordered := rows.Clone()
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ChunkIndex(ordered[i].ChunkID), ChunkIndex(ordered[j].ChunkID)
		if a != b {
			return a < b
		}
		return ordered[i].ChunkID < ordered[j].ChunkID
	})

	parts := make([]string, 0, len(ordered))
	for i := range ordered {
		if text := NormalizeText(ordered[i].Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// TitleFromFileName derives a readable title from a file name:
// the extension is dropped and underscores and dashes become spaces.
func TitleFromFileName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return NormalizeText(base)
}
