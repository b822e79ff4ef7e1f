package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestNewEmbeddingService(t *testing.T) {
	assert.Equal(t, DefaultDimensions, NewEmbeddingService(0).Dimensions())
	assert.Equal(t, DefaultModel, NewEmbeddingService(0).ModelName())
	assert.Equal(t, 64, NewEmbeddingService(64).Dimensions())
	assert.Equal(t, "hashing-custom", NewEmbeddingService(64).ModelName())
}

func TestEmbed_Deterministic(t *testing.T) {
	s := NewEmbeddingService(0)

	a, err := s.Embed(context.Background(), "Заявление на отпуск")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "Заявление на отпуск")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimensions)
}

func TestEmbed_SimilarTextsScoreHigher(t *testing.T) {
	s := NewEmbeddingService(0)
	ctx := context.Background()

	query, _ := s.Embed(ctx, "query: how to request vacation days")
	related, _ := s.Embed(ctx, "passage: Submit a vacation request 14 days in advance.")
	unrelated, _ := s.Embed(ctx, "passage: Expense reports are due monthly.")

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestEmbed_PrefixIgnored(t *testing.T) {
	s := NewEmbeddingService(0)

	a, _ := s.Embed(context.Background(), "query: vpn access")
	b, _ := s.Embed(context.Background(), "passage: vpn access")

	assert.Equal(t, a, b)
}

func TestEmbed_Blank(t *testing.T) {
	vec, err := NewEmbeddingService(8).Embed(context.Background(), "   ")

	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestEmbedBatch(t *testing.T) {
	s := NewEmbeddingService(16)

	vectors, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Len(t, vectors, 3)
}

func TestEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(0).EmbedBatch(ctx, []string{"a"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPingClose(t *testing.T) {
	s := NewEmbeddingService(0)

	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
