package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Contains(t, normaliser.Extensions(), ".txt")
}

func TestExtract(t *testing.T) {
	normaliser := New()

	result, err := normaliser.Extract(context.Background(), "vpn_access.txt",
		[]byte("\ufeffConnect via the VPN client.\r\n\r\nUse your SSO login.\r\n"))

	require.NoError(t, err)
	assert.Equal(t, "vpn access", result.Title)
	assert.Equal(t, "Connect via the VPN client.\n\nUse your SSO login.", result.Text)
	assert.Equal(t, "plaintext", result.Format)
}

func TestExtract_Empty(t *testing.T) {
	result, err := New().Extract(context.Background(), "empty.txt", nil)

	require.NoError(t, err)
	assert.Empty(t, result.Text)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	result, err := New().Extract(context.Background(), "binary.txt", []byte{0xff, 0xfe, 0xfd})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}
