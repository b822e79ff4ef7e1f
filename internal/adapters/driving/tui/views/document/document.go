// Package document provides the full-text document view for the TUI.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

// ErrNoDocumentService indicates documents cannot be opened.
var ErrNoDocumentService = errors.New("document service is required")

// reservedLines covers the title, metadata, separator and help footer.
const reservedLines = 8

// View shows one reconstructed document with the matched passage marked.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	ctx             context.Context

	result       *domain.SearchResult
	document     *domain.Document
	lines        []string
	scrollOffset int
	width        int
	height       int
	loading      bool
	err          error
}

// NewView creates a new document view.
func NewView(s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:          s,
		keymap:          km,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context used to load documents.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open resets the view for result and returns the command loading its document.
func (v *View) Open(result domain.SearchResult) tea.Cmd {
	v.result = &result
	v.document = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true

	ctx := v.ctx
	svc := v.documentService
	docID := result.DocID
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentLoaded{DocID: docID, Err: ErrNoDocumentService}
		}
		doc, found, err := svc.Get(ctx, docID)
		return messages.DocumentLoaded{DocID: docID, Document: doc, Found: found, Err: err}
	}
}

// Update handles messages for the document view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentLoaded:
		v.handleLoaded(msg)
		return v, nil
	}
	return v, nil
}

func (v *View) handleLoaded(msg messages.DocumentLoaded) {
	if v.result == nil || msg.DocID != v.result.DocID {
		return
	}
	v.loading = false
	switch {
	case msg.Err != nil:
		v.err = msg.Err
	case !msg.Found || msg.Document == nil:
		v.err = fmt.Errorf("document %s: %w", msg.DocID, domain.ErrNotFound)
	default:
		v.document = msg.Document
		v.wrapContent()
		v.scrollToMatch()
	}
}

// handleKeyMsg handles scrolling and navigation back to search.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
	case keymap.Matches(k, v.keymap.Up):
		v.scrollOffset = max(v.scrollOffset-1, 0)
	case keymap.Matches(k, v.keymap.Down):
		v.scrollOffset = min(v.scrollOffset+1, v.maxScrollOffset())
	case keymap.Matches(k, v.keymap.PageUp):
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case keymap.Matches(k, v.keymap.PageDown):
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case k == "home" || k == "g":
		v.scrollOffset = 0
	case k == "end" || k == "G":
		v.scrollOffset = v.maxScrollOffset()
	}
	return v, nil
}

// wrapContent wraps the document text to the view width, counting runes.
func (v *View) wrapContent() {
	v.lines = nil
	if v.document == nil || v.document.Text == "" {
		return
	}

	width := max(v.width-4, 20)
	for _, line := range strings.Split(v.document.Text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			v.lines = append(v.lines, string(runes[:width]))
			runes = runes[width:]
		}
		v.lines = append(v.lines, string(runes))
	}
}

// scrollToMatch positions the view at the first line of the matched passage.
func (v *View) scrollToMatch() {
	if v.result == nil {
		return
	}
	probe := firstLine(v.result.Text, min(40, max(v.width-4, 20)))
	if probe == "" {
		return
	}
	for i, line := range v.lines {
		if strings.Contains(line, probe) {
			v.scrollOffset = min(i, v.maxScrollOffset())
			return
		}
	}
}

// firstLine returns up to n runes of the first line of s.
func firstLine(s string, n int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	runes := []rune(strings.TrimSpace(line))
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func (v *View) visibleLines() int {
	return max(v.height-reservedLines, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the document view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	switch {
	case v.document != nil:
		title = v.document.Title
	case v.result != nil:
		title = v.result.Title
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")

	if v.document != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s · %s · %s · updated %s",
			v.document.ID, v.document.Department, v.document.AccessLevel, v.document.UpdatedAt)))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading document..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		v.renderLines(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

func (v *View) renderLines(b *strings.Builder) {
	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		percentage := 0
		if maxOffset := v.maxScrollOffset(); maxOffset > 0 {
			percentage = v.scrollOffset * 100 / maxOffset
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage, v.scrollOffset+1, end, len(v.lines))))
	}
}

// SetDimensions sets the view dimensions and rewraps the text.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrapContent()
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// Document returns the loaded document.
func (v *View) Document() *domain.Document {
	return v.document
}

// ScrollOffset returns the index of the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Loading reports whether a document is being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
