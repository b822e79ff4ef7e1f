package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/handbook/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{DocID: "DOC0001", ChunkID: "DOC0001_C01", Title: "Vacation Policy", Text: "Submit a request.", Score: 0.91},
		{DocID: "DOC0002", ChunkID: "DOC0002_C02", Title: "VPN Access", Text: "Open a ticket.", Score: 0.65},
		{DocID: "DOC0003", ChunkID: "DOC0003_C01", Title: "", Text: "Ask your manager.", Score: 0.31},
	}
}

func TestNewResultList(t *testing.T) {
	list := NewResultList(styles.DefaultStyles())

	require.NotNil(t, list)
	assert.Equal(t, 0, list.Selected())
	assert.True(t, list.IsEmpty())
	assert.Nil(t, list.Init())
}

func TestNewResultList_NilStyles(t *testing.T) {
	assert.NotNil(t, NewResultList(nil).styles)
}

func TestResultList_SetResults_ResetsSelection(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())
	list.SetSelected(2)

	list.SetResults(sampleResults()[:1])

	assert.Equal(t, 1, list.Count())
	assert.Equal(t, 0, list.Selected())
}

func TestResultList_SetSelected_OutOfRange(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.SetSelected(5)
	assert.Equal(t, 0, list.Selected())

	list.SetSelected(-1)
	assert.Equal(t, 0, list.Selected())
}

func TestResultList_Navigation(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.MoveUp()
	assert.Equal(t, 0, list.Selected(), "stays at the top")

	list.Update(tea.KeyMsg{Type: tea.KeyDown})
	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, list.Selected())

	list.MoveDown()
	assert.Equal(t, 2, list.Selected(), "stays at the bottom")

	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, list.Selected())
}

func TestResultList_SelectedResult(t *testing.T) {
	list := NewResultList(nil)
	assert.Nil(t, list.SelectedResult())

	list.SetResults(sampleResults())
	list.SetSelected(1)

	require.NotNil(t, list.SelectedResult())
	assert.Equal(t, "DOC0002", list.SelectedResult().DocID)
}

func TestResultList_View(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Contains(t, NewResultList(nil).View(), "No results")
	})

	t.Run("renders results", func(t *testing.T) {
		list := NewResultList(nil)
		list.SetDimensions(100, 40)
		list.SetResults(sampleResults())

		view := list.View()

		assert.Contains(t, view, "Results (3)")
		assert.Contains(t, view, "Vacation Policy")
		assert.Contains(t, view, "0.910")
		assert.Contains(t, view, "DOC0002 | DOC0002_C02")
		assert.Contains(t, view, "(Untitled)")
		assert.Contains(t, view, "> ")
	})

	t.Run("scrolls to keep the selection visible", func(t *testing.T) {
		list := NewResultList(nil)
		list.SetDimensions(100, 7)
		list.SetResults(sampleResults())
		list.SetSelected(2)

		view := list.View()

		assert.Contains(t, view, "Ask your manager.")
		assert.NotContains(t, view, "Vacation Policy")
	})
}

func TestResultList_ScoreStyle(t *testing.T) {
	s := styles.DefaultStyles()
	list := NewResultList(s)

	assert.Equal(t, s.Success, list.ScoreStyle(0.80))
	assert.Equal(t, s.Warning, list.ScoreStyle(0.60))
	assert.Equal(t, s.Error, list.ScoreStyle(0.59))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"fits", "short", 10, "short"},
		{"cut with ellipsis", "abcdefghij", 8, "abcde..."},
		{"runes not bytes", strings.Repeat("ж", 12), 8, strings.Repeat("ж", 5) + "..."},
		{"tiny limit", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.n))
		})
	}
}
