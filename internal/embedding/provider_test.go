package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Embed_Deterministic(t *testing.T) {
	p := NewProvider("test-model", 4)
	ctx := context.Background()

	v1, err := p.Embed(ctx, "list playback sinks")
	require.NoError(t, err)
	v2, err := p.Embed(ctx, "list playback sinks")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, Dimension)
}

func TestProvider_Embed_DifferentTextDiffers(t *testing.T) {
	p := NewProvider("test-model", 4)
	ctx := context.Background()

	v1, err := p.Embed(ctx, "volume is too low")
	require.NoError(t, err)
	v2, err := p.Embed(ctx, "microphone not detected")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestProvider_Embed_UnitLength(t *testing.T) {
	p := NewProvider("test-model", 4)
	v, err := p.Embed(context.Background(), "arecord -l")
	require.NoError(t, err)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-6)
}

func TestProvider_EmbedBatch_PreservesOrder(t *testing.T) {
	p := NewProvider("test-model", 2)
	texts := []string{"a", "b", "c", "d", "e"}

	got, err := p.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, got, len(texts))

	for i, text := range texts {
		want, err := p.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}
}

func TestProvider_Embed_EmptyTextIsZeroVector(t *testing.T) {
	p := NewProvider("test-model", 4)
	v, err := p.Embed(context.Background(), "")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}
