package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/orchestrate/internal/dag"
	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/embedding"
	"github.com/smilemakc/orchestrate/internal/executor"
	"github.com/smilemakc/orchestrate/internal/reasoning"
	"github.com/smilemakc/orchestrate/internal/search"
	"github.com/smilemakc/orchestrate/internal/vectorindex"
)

func unreachableReasoningClient() *reasoning.Client {
	return reasoning.NewClient("127.0.0.1:1", 50*time.Millisecond)
}

func TestFacade_Solve_EmptyPromptIsValidationError(t *testing.T) {
	f := New(nil, nil, nil)
	_, err := f.Solve(context.Background(), "", Options{})
	assert.Error(t, err)
}

func TestFacade_Solve_NoCandidatesYieldsFailedTrace(t *testing.T) {
	index := vectorindex.NewMemoryIndex()
	embed := embedding.NewProvider("test", 4)
	reason := unreachableReasoningClient()
	s := search.New(embed, index, reason, search.ReasoningParams{})
	b := dag.New(nil, reason, dag.ReasoningParams{})
	x := executor.New(reason)
	f := New(s, b, x)

	trace, err := f.Solve(context.Background(), "no matching commands at all", Options{Limit: 5, Threshold: 0.9})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, trace.OverallStatus)
	assert.Empty(t, trace.Candidates)
}

func TestFacade_Solve_RunsEndToEnd(t *testing.T) {
	index := vectorindex.NewMemoryIndex()
	embed := embedding.NewProvider("test", 4)
	reason := unreachableReasoningClient()
	ctx := context.Background()

	entry := domain.CommandEntry{Name: "true", Synopsis: "do nothing, successfully", Description: "exit 0"}
	vec, err := embed.Embed(ctx, entry.EmbeddingText())
	require.NoError(t, err)
	entry.Embedding = vec
	require.NoError(t, index.Upsert(ctx, []domain.CommandEntry{entry}))

	s := search.New(embed, index, reason, search.ReasoningParams{})
	b := dag.New(nil, reason, dag.ReasoningParams{})
	x := executor.New(reason)
	f := New(s, b, x)

	trace, err := f.Solve(ctx, "do nothing, successfully", Options{Limit: 5, Threshold: 0.0, MaxParallel: 2})
	require.NoError(t, err)
	require.Len(t, trace.Results, 1)
	assert.Equal(t, domain.StatusOK, trace.OverallStatus)
}
