package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/embedding"
	"github.com/smilemakc/orchestrate/internal/reasoning"
	"github.com/smilemakc/orchestrate/internal/vectorindex"
)

func TestSearch_Query_AttachesRationaleAndFallsBackOnUnavailable(t *testing.T) {
	index := vectorindex.NewMemoryIndex()
	embed := embedding.NewProvider("test", 4)
	ctx := context.Background()

	entry := domain.CommandEntry{Name: "amixer", Section: "1", Synopsis: "command-line mixer", Description: "adjust volume"}
	vec, err := embed.Embed(ctx, entry.EmbeddingText())
	require.NoError(t, err)
	entry.Embedding = vec
	require.NoError(t, index.Upsert(ctx, []domain.CommandEntry{entry}))

	reason := reasoning.NewClient("127.0.0.1:1", 50*time.Millisecond)
	s := New(embed, index, reason, ReasoningParams{Model: "mistral", MaxTokens: 32})

	results, err := s.Query(ctx, "adjust volume", 5, 0.0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "adjust volume", results[0].Rationale)
}

func TestSearch_Query_UsesReasoningWhenAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"amixer adjusts the mixer volume","done":true}`))
	}))
	defer srv.Close()

	index := vectorindex.NewMemoryIndex()
	embed := embedding.NewProvider("test", 4)
	ctx := context.Background()

	entry := domain.CommandEntry{Name: "amixer", Synopsis: "command-line mixer", Description: "adjust volume"}
	vec, err := embed.Embed(ctx, entry.EmbeddingText())
	require.NoError(t, err)
	entry.Embedding = vec
	require.NoError(t, index.Upsert(ctx, []domain.CommandEntry{entry}))

	reason := reasoning.NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second)
	s := New(embed, index, reason, ReasoningParams{Model: "mistral", MaxTokens: 32})

	results, err := s.Query(ctx, "adjust volume", 5, 0.0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "amixer adjusts the mixer volume", results[0].Rationale)
}

func TestSearch_Query_LimitAboveMaxIsAccepted(t *testing.T) {
	index := vectorindex.NewMemoryIndex()
	embed := embedding.NewProvider("test", 4)
	reason := reasoning.NewClient("127.0.0.1:1", 50*time.Millisecond)
	s := New(embed, index, reason, ReasoningParams{})

	results, err := s.Query(context.Background(), "anything", MaxLimit+10, 0.0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
