package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/adapters/driving/tui/styles"
)

func TestNewQueryInput(t *testing.T) {
	input := NewQueryInput(styles.DefaultStyles())

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
	assert.Equal(t, DefaultWidth, input.Width())
}

func TestNewQueryInput_NilStyles(t *testing.T) {
	input := NewQueryInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestQueryInput_Init(t *testing.T) {
	assert.NotNil(t, NewQueryInput(nil).Init(), "blink command")
}

func TestQueryInput_Update_Typing(t *testing.T) {
	input := NewQueryInput(nil)

	for _, r := range "отпуск" {
		input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "отпуск", input.Value())
}

func TestQueryInput_Update_Backspace(t *testing.T) {
	input := NewQueryInput(nil)
	input.SetValue("test")

	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "tes", input.Value())
}

func TestQueryInput_Query_Trims(t *testing.T) {
	input := NewQueryInput(nil)
	input.SetValue("  vpn access \t")

	assert.Equal(t, "vpn access", input.Query())
	assert.Equal(t, "  vpn access \t", input.Value())
}

func TestQueryInput_View(t *testing.T) {
	assert.Contains(t, NewQueryInput(nil).View(), "Query")
}

func TestQueryInput_FocusAndBlur(t *testing.T) {
	input := NewQueryInput(nil)

	input.Blur()
	assert.False(t, input.Focused())

	cmd := input.Focus()
	assert.NotNil(t, cmd)
	assert.True(t, input.Focused())
}

func TestQueryInput_SetWidth(t *testing.T) {
	input := NewQueryInput(nil)

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())
	assert.Equal(t, 90, input.textinput.Width)

	input.SetWidth(10)
	assert.Equal(t, MinWidth, input.textinput.Width)
}

func TestQueryInput_Reset(t *testing.T) {
	input := NewQueryInput(nil)
	input.SetValue("some text")

	input.Reset()

	assert.Equal(t, "", input.Value())
}
