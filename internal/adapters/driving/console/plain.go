package console

import (
	"fmt"
	"io"
	"time"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// Ensure PlainPresenter implements the interface.
var _ Presenter = (*PlainPresenter)(nil)

// PlainPresenter writes unstyled text.
type PlainPresenter struct {
	w io.Writer
}

// NewPlainPresenter creates a plain presenter writing to w.
func NewPlainPresenter(w io.Writer) *PlainPresenter {
	return &PlainPresenter{w: w}
}

// Header prints the session banner.
func (p *PlainPresenter) Header(info SessionInfo) {
	fmt.Fprintln(p.w, "Handbook semantic search (console)")
	fmt.Fprintf(p.w, "Model: %s\n", info.Model)
	fmt.Fprintf(p.w, "Source: %s\n", info.Source)
	fmt.Fprintln(p.w, "Commands: help, clear, exit")
}

// Results prints each result followed by the elapsed time.
func (p *PlainPresenter) Results(results []domain.SearchResult, elapsed time.Duration) {
	fmt.Fprintln(p.w)
	for i := range results {
		r := &results[i]
		fmt.Fprintf(p.w, "%d. Score: %.3f\n", i+1, r.Score)
		fmt.Fprintf(p.w, "%s | %s | %s\n", r.DocID, r.ChunkID, r.Title)
		fmt.Fprintln(p.w, truncate(r.Text, MaxTextRunes))
		fmt.Fprintln(p.w, separator())
	}
	fmt.Fprintf(p.w, "Done in %.3fs\n", elapsed.Seconds())
}

// NoResults reports an empty result set.
func (p *PlainPresenter) NoResults() {
	fmt.Fprintln(p.w, "\nNo results found.")
}

// Help prints usage.
func (p *PlainPresenter) Help() {
	fmt.Fprintln(p.w, "How to use")
	fmt.Fprintln(p.w, "- Type a question to get the best matching passages.")
	fmt.Fprintln(p.w, "- Empty input does not run a search.")
	fmt.Fprintln(p.w, "Commands: help, clear, exit")
}

// Bye prints the farewell.
func (p *PlainPresenter) Bye() {
	fmt.Fprintln(p.w, "\nBye")
}

// Error prints a failed search.
func (p *PlainPresenter) Error(err error) {
	fmt.Fprintf(p.w, "\nError: %v\n", err)
}
