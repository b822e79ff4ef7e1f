package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrValidation", ErrValidation},
		{"ErrSchema", ErrSchema},
		{"ErrIndexBuild", ErrIndexBuild},
		{"ErrSourceMissing", ErrSourceMissing},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrUnsupportedType", ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Wrapping tests that wrapped errors are still identifiable
func TestErrors_Wrapping(t *testing.T) {
	err := fmt.Errorf("building index: %w", fmt.Errorf("%w: no text column", ErrSchema))

	assert.True(t, errors.Is(err, ErrSchema))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "schema error")
}

// TestErrors_Distinct tests that no two sentinels compare equal
func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrValidation,
		ErrSchema, ErrIndexBuild, ErrSourceMissing, ErrEmbeddingUnavailable,
		ErrUnsupportedType,
	}
	for i := range all {
		for j := range all {
			if i != j {
				assert.False(t, errors.Is(all[i], all[j]), "%v vs %v", all[i], all[j])
			}
		}
	}
}
