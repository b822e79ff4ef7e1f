package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// Embedding prefixes expected by E5 style models.
const (
	QueryPrefix   = "query: "
	PassagePrefix = "passage: "
)

// PrepareQuery wraps a raw query with template and the query prefix.
// An empty template falls back to domain.DefaultQueryTemplate.
func PrepareQuery(template, query string) string {
	if template == "" {
		template = domain.DefaultQueryTemplate
	}
	return QueryPrefix + fmt.Sprintf(template, query)
}

// PreparePassage returns the text embedded for a stored chunk.
func PreparePassage(text string) string {
	return PassagePrefix + domain.NormalizeText(text)
}

type candidate struct {
	row   int
	score float64
}

// Rank scores every passage of state against a normalised query vector and
// selects results.
//
// Candidates are sorted by descending similarity (ties keep table order)
// and cut to TopChunks. The pool is then scanned in order: candidates under
// MinScore are skipped, as are candidates whose document already holds
// MaxPerDoc results. Scanning stops after TopResults acceptances.
func Rank(query []float32, state *IndexState, opts domain.SearchOptions) []domain.SearchResult {
	if state == nil || len(state.Matrix) == 0 {
		return []domain.SearchResult{}
	}

	pool := make([]candidate, len(state.Matrix))
	for i, vec := range state.Matrix {
		pool[i] = candidate{row: i, score: dot(vec, query)}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score > pool[j].score
	})
	if opts.TopChunks < len(pool) {
		pool = pool[:opts.TopChunks]
	}

	results := make([]domain.SearchResult, 0, opts.TopResults)
	perDoc := make(map[string]int)
	for _, c := range pool {
		if c.score < opts.MinScore {
			continue
		}
		row := state.Rows[c.row]
		docID := strings.TrimSpace(row.DocID)
		if perDoc[docID] >= opts.MaxPerDoc {
			continue
		}
		perDoc[docID]++
		results = append(results, domain.SearchResult{
			Score:   c.score,
			DocID:   row.DocID,
			ChunkID: row.ChunkID,
			Title:   row.Title,
			Text:    row.Text,
		})
		if len(results) >= opts.TopResults {
			break
		}
	}
	return results
}
