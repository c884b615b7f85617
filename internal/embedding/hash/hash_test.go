package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_Defaults(t *testing.T) {
	e := NewEmbedder(0)
	assert.Equal(t, "hash", e.Name())
	assert.Equal(t, DefaultDimension, e.Dimension())
	assert.Equal(t, 32, NewEmbedder(32).Dimension())
}

func TestEmbed_DeterministicAndNormalized(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Led migration to AWS")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "led MIGRATION to aws")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	sum := 0.0
	for _, x := range a {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestEmbed_NoTokens(t *testing.T) {
	v, err := NewEmbedder(8).Embed(context.Background(), "!!!")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), []float32(v))
}

func TestEmbedBatch(t *testing.T) {
	e := NewEmbedder(16)
	ctx := context.Background()

	vs, err := e.EmbedBatch(ctx, []string{"go", "python"})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	single, _ := e.Embed(ctx, "python")
	assert.Equal(t, single, vs[1])
}
