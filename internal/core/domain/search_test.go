package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()

	assert.Equal(t, 80, opts.TopChunks)
	assert.Equal(t, 1, opts.MaxPerDoc)
	assert.InDelta(t, 0.30, opts.MinScore, 1e-9)
	assert.Equal(t, 3, opts.TopResults)
	assert.NoError(t, opts.Validate())
}

func TestSearchOptions_WithDefaults(t *testing.T) {
	got := SearchOptions{TopResults: 5}.WithDefaults(DefaultSearchOptions())

	assert.Equal(t, 80, got.TopChunks)
	assert.Equal(t, 1, got.MaxPerDoc)
	assert.Equal(t, 5, got.TopResults)
	assert.Zero(t, got.MinScore, "min score is never defaulted")
}

func TestSearchOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts SearchOptions
		ok   bool
	}{
		{"defaults", DefaultSearchOptions(), true},
		{"zero pool", SearchOptions{TopChunks: 0, MaxPerDoc: 1, TopResults: 1}, false},
		{"negative quota", SearchOptions{TopChunks: 1, MaxPerDoc: -1, TopResults: 1}, false},
		{"zero results", SearchOptions{TopChunks: 1, MaxPerDoc: 1, TopResults: 0}, false},
		{"score above one", SearchOptions{TopChunks: 1, MaxPerDoc: 1, TopResults: 1, MinScore: 1.5}, false},
		{"negative score allowed", SearchOptions{TopChunks: 1, MaxPerDoc: 1, TopResults: 1, MinScore: -0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}
