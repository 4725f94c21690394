package hashing

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

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(0)

	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbed_DeterministicAndNormalised(t *testing.T) {
	svc := NewEmbeddingService(64)

	a, err := svc.Embed(context.Background(), "Attention is all you need")
	require.NoError(t, err)
	b, err := svc.Embed(context.Background(), "attention IS all you need!")
	require.NoError(t, err)

	require.Len(t, a, 64)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestEmbed_SimilarTextsAreCloser(t *testing.T) {
	svc := NewEmbeddingService(DefaultDimensions)
	ctx := context.Background()

	query, _ := svc.Embed(ctx, "transformer attention for machine translation")
	related, _ := svc.Embed(ctx, "attention based transformer models improve machine translation")
	unrelated, _ := svc.Embed(ctx, "protein folding with molecular dynamics")

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestEmbed_EmptyTextIsZeroVector(t *testing.T) {
	svc := NewEmbeddingService(16)

	vec, err := svc.Embed(context.Background(), "  ... ")

	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbed_Cancelled(t *testing.T) {
	svc := NewEmbeddingService(16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Embed(ctx, "text")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedBatch(t *testing.T) {
	svc := NewEmbeddingService(DefaultDimensions)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"one", "two", "one"})

	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vecs[0], vecs[2])
	assert.NotEqual(t, vecs[0], vecs[1])
}
