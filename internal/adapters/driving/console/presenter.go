// Package console provides the interactive search prompt.
package console

import (
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// Output limits.
const (
	MaxTextRunes   = 400
	SeparatorWidth = 60
)

// Score thresholds used for colouring.
const (
	HighScore   = 0.80
	MediumScore = 0.60
)

// SessionInfo describes what the console is searching.
type SessionInfo struct {
	Model  string
	Source string
}

// Presenter renders console output.
type Presenter interface {
	Header(info SessionInfo)
	Results(results []domain.SearchResult, elapsed time.Duration)
	NoResults()
	Help()
	Bye()
	Error(err error)
}

// SelectPresenter picks a presenter for w. Auto chooses rich output when w
// is a terminal.
func SelectPresenter(w io.Writer, mode domain.PresenterMode) Presenter {
	switch mode {
	case domain.PresenterRich:
		return NewRichPresenter(w)
	case domain.PresenterPlain:
		return NewPlainPresenter(w)
	default:
		if isTerminal(w) {
			return NewRichPresenter(w)
		}
		return NewPlainPresenter(w)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func separator() string {
	return strings.Repeat("-", SeparatorWidth)
}
