package console

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// Ensure RichPresenter implements the interface.
var _ Presenter = (*RichPresenter)(nil)

// RichPresenter writes styled output. Colours degrade to plain text when
// w does not support them.
type RichPresenter struct {
	w io.Writer

	panel   lipgloss.Style
	help    lipgloss.Style
	bold    lipgloss.Style
	index   lipgloss.Style
	dim     lipgloss.Style
	high    lipgloss.Style
	medium  lipgloss.Style
	low     lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	accent  lipgloss.Style
}

// NewRichPresenter creates a rich presenter writing to w.
func NewRichPresenter(w io.Writer) *RichPresenter {
	r := lipgloss.NewRenderer(w)
	return &RichPresenter{
		w: w,

		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1),
		help: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("13")).
			Padding(0, 1),
		bold:    r.NewStyle().Bold(true),
		index:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		dim:     r.NewStyle().Faint(true),
		high:    r.NewStyle().Foreground(lipgloss.Color("2")),
		medium:  r.NewStyle().Foreground(lipgloss.Color("3")),
		low:     r.NewStyle().Foreground(lipgloss.Color("1")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		accent:  r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Header prints the session banner in a bordered panel.
func (p *RichPresenter) Header(info SessionInfo) {
	body := lipgloss.JoinVertical(lipgloss.Left,
		p.bold.Render("Handbook semantic search (console)"),
		"",
		p.bold.Render("Model: ")+p.high.Render(info.Model),
		p.bold.Render("Source: ")+p.high.Render(info.Source),
		"",
		p.bold.Render("Commands: ")+p.commands(),
	)
	fmt.Fprintln(p.w, p.panel.Render(body))
}

// Results prints each result with its score coloured by band.
func (p *RichPresenter) Results(results []domain.SearchResult, elapsed time.Duration) {
	fmt.Fprintln(p.w)
	for i := range results {
		r := &results[i]
		fmt.Fprintln(p.w, p.index.Render(fmt.Sprintf("%d. Score: ", i+1))+
			p.scoreStyle(r.Score).Render(fmt.Sprintf("%.3f", r.Score)))
		fmt.Fprintln(p.w, p.dim.Render(fmt.Sprintf("%s | %s | %s", r.DocID, r.ChunkID, r.Title)))
		fmt.Fprintln(p.w, truncate(r.Text, MaxTextRunes))
		fmt.Fprintln(p.w, separator())
	}
	fmt.Fprintln(p.w, p.success.Render(fmt.Sprintf("Done in %.3fs", elapsed.Seconds())))
}

// NoResults reports an empty result set.
func (p *RichPresenter) NoResults() {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.warning.Render("No results found."))
}

// Help prints usage in a bordered panel.
func (p *RichPresenter) Help() {
	body := lipgloss.JoinVertical(lipgloss.Left,
		p.bold.Render("How to use"),
		"• Type a question to get the best matching passages.",
		"• Empty input does not run a search.",
		"",
		p.bold.Render("Commands"),
		"• "+p.accent.Render("help")+"  show this help",
		"• "+p.accent.Render("clear")+" clear the screen",
		"• "+p.accent.Render("exit")+"  leave the console",
	)
	fmt.Fprintln(p.w, p.help.Render(body))
}

// Bye prints the farewell.
func (p *RichPresenter) Bye() {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.bold.Render("Bye"))
}

// Error prints a failed search.
func (p *RichPresenter) Error(err error) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.failure.Render("Error: ")+err.Error())
}

func (p *RichPresenter) commands() string {
	sep := p.dim.Render(", ")
	return p.accent.Render("help") + sep + p.accent.Render("clear") + sep + p.accent.Render("exit")
}

// scoreStyle colours scores: green from 0.80, yellow from 0.60, red below.
func (p *RichPresenter) scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= HighScore:
		return p.high
	case score >= MediumScore:
		return p.medium
	default:
		return p.low
	}
}
