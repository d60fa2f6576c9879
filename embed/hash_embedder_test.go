package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Embedder = (*HashEmbedder)(nil)

func l2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestHashEmbedder_UnitNorm(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := context.Background()

	for _, text := range []string{
		"a",
		"hello world",
		"The quick brown fox jumps over the lazy dog",
		"你好，世界",
		"7",
	} {
		v, err := e.EmbedText(ctx, text)
		require.NoError(t, err)
		require.Len(t, v, DefaultDimension)
		assert.InDelta(t, 1.0, l2Norm(v), 1e-4, "norm for %q", text)
	}
}

func TestHashEmbedder_RestState(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\t\n  "} {
		v, err := e.EmbedText(ctx, text)
		require.NoError(t, err)
		require.Len(t, v, DefaultDimension)
		for i, x := range v {
			require.Zerof(t, x, "component %d for %q", i, text)
		}
	}
}

func TestHashEmbedder_NormalizedInputInvariance(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := context.Background()

	base, err := e.EmbedText(ctx, "Hello World")
	require.NoError(t, err)

	for _, variant := range []string{"hello world", "  Hello World  ", "HELLO WORLD\n"} {
		v, err := e.EmbedText(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, base, v, "variant %q", variant)
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := context.Background()

	a, err := e.EmbedText(ctx, "same input")
	require.NoError(t, err)
	b, err := e.EmbedText(ctx, "same input")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := e.EmbedText(ctx, "different input")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHashEmbedder_EmbedTexts(t *testing.T) {
	e := NewHashEmbedder(0)
	vs, err := e.EmbedTexts(context.Background(), []string{"one", "two", ""})
	require.NoError(t, err)
	require.Len(t, vs, 3)
	assert.InDelta(t, 1.0, l2Norm(vs[0]), 1e-4)
	assert.InDelta(t, 1.0, l2Norm(vs[1]), 1e-4)
	assert.Zero(t, l2Norm(vs[2]))
}

func TestNewEmbedder_DefaultsToHash(t *testing.T) {
	e := NewEmbedder(Config{})
	assert.Equal(t, "hash", e.Provider())
	assert.Equal(t, DefaultDimension, e.Dimension())
}

func TestCosineSimilarity(t *testing.T) {
	v := []float32{0.3, -0.4, 0.5, 0.1}

	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)

	neg := make([]float32, len(v))
	for i, x := range v {
		neg[i] = -x
	}
	assert.InDelta(t, -1.0, CosineSimilarity(v, neg), 1e-6)

	// degenerate inputs never fail, they drop toward zero
	assert.Zero(t, CosineSimilarity(v, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.InDelta(t, 0.0, CosineSimilarity(v, make([]float32, len(v))), 1e-6)
}
