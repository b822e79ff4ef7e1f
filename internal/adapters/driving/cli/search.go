package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

var (
	searchTop       int
	searchMinScore  float64
	searchMaxPerDoc int
	searchPool      int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the handbook",
	Long: `Ranks handbook passages by semantic similarity to the query.

The query is wrapped in the configured template, embedded, and compared
with every passage. The best --pool passages are kept, at most
--max-per-doc per document, and the first --top above --min-score are
printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	defaults := domain.DefaultSearchOptions()
	flags := searchCmd.Flags()
	flags.IntVarP(&searchTop, "top", "n", defaults.TopResults, "number of results")
	flags.Float64Var(&searchMinScore, "min-score", defaults.MinScore, "minimum cosine score")
	flags.IntVar(&searchMaxPerDoc, "max-per-doc", defaults.MaxPerDoc, "results per document")
	flags.IntVar(&searchPool, "pool", defaults.TopChunks, "candidate passages considered")
	rootCmd.AddCommand(searchCmd)
}

// searchResponse is the structured search output.
type searchResponse struct {
	Query   string                `json:"query" yaml:"query"`
	Results []domain.SearchResult `json:"results" yaml:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}

	query := strings.Join(args, " ")
	opts := searchOptions(cmd)

	started := time.Now()
	results, err := searchService.Search(commandContext(cmd), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	elapsed := time.Since(started)

	if results == nil {
		results = []domain.SearchResult{}
	}
	return render(cmd, searchResponse{Query: query, Results: results}, func(w io.Writer) {
		printResults(w, results, elapsed)
	})
}

// searchOptions starts from the configured defaults and applies the flags
// the user set.
func searchOptions(cmd *cobra.Command) domain.SearchOptions {
	opts := searchService.Defaults()
	flags := cmd.Flags()
	if flags.Changed("top") {
		opts.TopResults = searchTop
	}
	if flags.Changed("min-score") {
		opts.MinScore = searchMinScore
	}
	if flags.Changed("max-per-doc") {
		opts.MaxPerDoc = searchMaxPerDoc
	}
	if flags.Changed("pool") {
		opts.TopChunks = searchPool
	}
	return opts
}

func printResults(w io.Writer, results []domain.SearchResult, elapsed time.Duration) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	for i, r := range results {
		fmt.Fprintf(w, "%d. Score: %.3f\n", i+1, r.Score)
		fmt.Fprintf(w, "%s | %s | %s\n", r.DocID, r.ChunkID, r.Title)
		fmt.Fprintln(w, r.Text)
		fmt.Fprintln(w, strings.Repeat("-", 60))
	}
	fmt.Fprintf(w, "Done in %.3fs\n", elapsed.Seconds())
}
