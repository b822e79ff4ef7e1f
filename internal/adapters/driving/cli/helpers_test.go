package cli

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
	defaults   domain.SearchOptions
	gotQuery   string
	gotOpts    domain.SearchOptions
}

func (m *MockSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.gotQuery = query
	m.gotOpts = opts
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return []domain.SearchResult{}, nil
}

func (m *MockSearchService) Defaults() domain.SearchOptions {
	if m.defaults == (domain.SearchOptions{}) {
		return domain.DefaultSearchOptions()
	}
	return m.defaults
}

// MockDocumentService implements driving.DocumentService over a map.
type MockDocumentService struct {
	docs      map[string]*domain.Document
	err       error
	created   []driving.DocumentInput
	updated   []driving.DocumentInput
	nextID    int
	deletedID string
}

func newMockDocumentService(docs ...*domain.Document) *MockDocumentService {
	m := &MockDocumentService{docs: make(map[string]*domain.Document), nextID: 100}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *MockDocumentService) Create(_ context.Context, in driving.DocumentInput) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, in)
	m.nextID++
	doc := &domain.Document{ID: fmt.Sprintf("DOC%04d", m.nextID), Title: in.Title, Text: in.Text}
	if in.Department != nil {
		doc.Department = *in.Department
	}
	if in.AccessLevel != nil {
		doc.AccessLevel = *in.AccessLevel
	}
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *MockDocumentService) Get(_ context.Context, docID string) (*domain.Document, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	doc, ok := m.docs[docID]
	return doc, ok, nil
}

func (m *MockDocumentService) List(context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Document, 0, len(m.docs))
	for _, id := range sortedIDs(m.docs) {
		out = append(out, *m.docs[id])
	}
	return out, nil
}

func (m *MockDocumentService) Update(_ context.Context, docID string, in driving.DocumentInput) (*domain.Document, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	doc, ok := m.docs[docID]
	if !ok {
		return nil, false, nil
	}
	m.updated = append(m.updated, in)
	doc.Title = in.Title
	doc.Text = in.Text
	if in.Department != nil {
		doc.Department = *in.Department
	}
	return doc, true, nil
}

func (m *MockDocumentService) Delete(_ context.Context, docID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.docs[docID]; !ok {
		return false, nil
	}
	delete(m.docs, docID)
	m.deletedID = docID
	return true, nil
}

// MockImportService implements driving.ImportService for testing.
type MockImportService struct {
	names  []string
	inputs []driving.DocumentInput
	err    error
}

func (m *MockImportService) Import(_ context.Context, name string, data []byte, in driving.DocumentInput) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.names = append(m.names, name)
	m.inputs = append(m.inputs, in)
	title := in.Title
	if title == "" {
		title = strings.TrimSuffix(name, ".md")
	}
	return &domain.Document{ID: fmt.Sprintf("DOC09%02d", len(m.names)), Title: title, Text: string(data)}, nil
}

// MockIndexService implements driving.IndexService for testing.
type MockIndexService struct {
	status        driving.IndexStatus
	warmupErr     error
	rebuildErr    error
	warmups       int
	rebuilds      int
	invalidated   int
	statusCalls   int
	builtOnWarmup bool
}

func (m *MockIndexService) Warmup(ctx context.Context) error {
	m.warmups++
	if m.warmupErr != nil {
		return m.warmupErr
	}
	if m.builtOnWarmup {
		m.status.Ready = true
	}
	return ctx.Err()
}

func (m *MockIndexService) Rebuild(context.Context) error {
	m.rebuilds++
	if m.rebuildErr != nil {
		return m.rebuildErr
	}
	m.status.Builds++
	return nil
}

func (m *MockIndexService) Invalidate() {
	m.invalidated++
	m.status.Ready = false
}

func (m *MockIndexService) Status() driving.IndexStatus {
	m.statusCalls++
	return m.status
}

// MockSettingsService implements driving.SettingsService in memory.
type MockSettingsService struct {
	settings    domain.AppSettings
	getErr      error
	setErr      error
	validateErr error
	embedErr    error
	set         map[string]string
	provider    domain.AIProvider
	model       string
	apiKey      string
}

func newMockSettingsService() *MockSettingsService {
	return &MockSettingsService{settings: domain.DefaultAppSettings(), set: make(map[string]string)}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *MockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *MockSettingsService) Keys() []string {
	return []string{
		"storage.backend",
		"storage.csv_path",
		"embedding.provider",
		"embedding.model",
		"embedding.api_key",
		"search.top_results",
	}
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider = provider
	m.model = model
	m.apiKey = apiKey
	return nil
}

func (m *MockSettingsService) Validate() error {
	return m.validateErr
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *MockSettingsService) ValidateEmbeddingConfig() error {
	return m.embedErr
}

// MockSeeder implements Seeder for testing.
type MockSeeder struct {
	rows  int
	err   error
	calls int
}

func (m *MockSeeder) Seed(context.Context) (int, error) {
	m.calls++
	return m.rows, m.err
}

// MockWatcher implements Watcher for testing.
type MockWatcher struct {
	started bool
	closed  bool
}

func (m *MockWatcher) Start(context.Context) error {
	m.started = true
	return nil
}

func (m *MockWatcher) Close() error {
	m.closed = true
	return nil
}

// useServices installs s for the duration of the test.
func useServices(t *testing.T, s *Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(nil) })
}

// resetFlags returns every flag of cmd and its children to its default.
// Cobra keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput runs the root command reading stdin from input.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), t, input, args...)
}

func executeContext(ctx context.Context, t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func sortedIDs(docs map[string]*domain.Document) []string {
	return slices.Sorted(maps.Keys(docs))
}
