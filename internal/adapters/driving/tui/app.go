package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/views/document"
	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/handbook/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// searchView is the query input and ranked results.
	searchView *search.View

	// documentView shows the document behind a selected result.
	documentView *document.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		searchView:   search.NewView(s, nil, ports.Search),
		documentView: document.NewView(s, nil, ports.Document),
		currentView:  messages.ViewSearch,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.documentView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("handbook"),
		a.searchView.Init(),
		a.loadIndexStatus(),
	)
}

// loadIndexStatus reads the index state when an index port is wired.
func (a *App) loadIndexStatus() tea.Cmd {
	if a.ports.Index == nil {
		return nil
	}
	index := a.ports.Index
	return func() tea.Msg {
		return messages.IndexStatusLoaded{Status: index.Status()}
	}
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
			a.err = a.searchView.Err()
		case messages.ViewDocument:
			a.documentView, cmd = a.documentView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc || msg.String() == "?" || msg.String() == "q" {
				a.currentView = messages.ViewSearch
			}
		}
		return a, cmd

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		// A search may have built the index.
		return a, tea.Batch(cmd, a.loadIndexStatus())

	case messages.IndexStatusLoaded:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.ResultSelected:
		a.currentView = messages.ViewDocument
		return a, a.documentView.Open(msg.Result)

	case messages.DocumentLoaded:
		a.documentView, cmd = a.documentView.Update(msg)
		a.err = a.documentView.Err()
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDocument:
		a.documentView, cmd = a.documentView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}
	return a, cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDocument:
		return a.documentView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.searchView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Search:
  (type)      Enter a question
  enter       Rank passages
  esc         Quit

Results:
  j/k, ↑/↓    Navigate results
  enter       Open the document
  / or n      New search
  ?           This help
  esc         Quit

Document:
  j/k, ↑/↓    Scroll
  PgUp/PgDn   Scroll a page
  g/G         Top/bottom
  esc         Back to results

  ctrl+c      Quit from anywhere

` + a.styles.Help.Render("[esc] back to search")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.searchView.SelectedIndex()
}

// Document returns the document shown by the document view.
func (a *App) Document() *domain.Document {
	return a.documentView.Document()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.searchView.SetDimensions(width, height)
	a.documentView.SetDimensions(width, height)
}
