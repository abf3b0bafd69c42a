package dag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/reasoning"
)

func unreachableReasoningClient() *reasoning.Client {
	return reasoning.NewClient("127.0.0.1:1", 50*time.Millisecond)
}

func TestBuilder_Build_InfersPipeEdgeFromRelationTable(t *testing.T) {
	b := New(nil, unreachableReasoningClient(), ReasoningParams{})
	candidates := []domain.SearchResult{
		{Command: domain.CommandEntry{Name: "pactl"}},
		{Command: domain.CommandEntry{Name: "grep"}},
	}

	graph := b.Build(context.Background(), "volume is too low", candidates)

	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, domain.EdgePipe, graph.Edges[0].Kind)
	assert.Equal(t, []string{"n0"}, graph.Nodes[1].Inputs)
}

func TestBuilder_Build_GrepArgsDeriveLastKeyword(t *testing.T) {
	b := New(nil, unreachableReasoningClient(), ReasoningParams{})
	candidates := []domain.SearchResult{
		{Command: domain.CommandEntry{Name: "pactl"}},
		{Command: domain.CommandEntry{Name: "grep"}},
	}

	graph := b.Build(context.Background(), "the volume is too low", candidates)

	grepNode := graph.Nodes[1]
	require.Equal(t, "grep", grepNode.Command)
	assert.Equal(t, []string{"-i", "volume"}, grepNode.Args)
}

func TestBuilder_Build_GrepArgsSingularizePluralKeyword(t *testing.T) {
	b := New(nil, unreachableReasoningClient(), ReasoningParams{})
	candidates := []domain.SearchResult{
		{Command: domain.CommandEntry{Name: "pactl"}},
		{Command: domain.CommandEntry{Name: "grep"}},
	}

	graph := b.Build(context.Background(), "show audio sink volumes", candidates)

	grepNode := graph.Nodes[1]
	require.Equal(t, "grep", grepNode.Command)
	assert.Equal(t, []string{"-i", "volume"}, grepNode.Args)
}

func TestBuilder_Build_NoRelationMeansNoEdges(t *testing.T) {
	b := New(nil, unreachableReasoningClient(), ReasoningParams{})
	candidates := []domain.SearchResult{
		{Command: domain.CommandEntry{Name: "curl"}},
		{Command: domain.CommandEntry{Name: "jq"}},
	}

	graph := b.Build(context.Background(), "fetch some json", candidates)
	assert.Empty(t, graph.Edges)
}

func TestBuilder_Build_BreaksCyclesFromCustomRelations(t *testing.T) {
	relations := NewRelationTable([]Relation{
		{Producer: `name == "a"`, Consumer: `name == "b"`, Kind: "pipe"},
		{Producer: `name == "b"`, Consumer: `name == "a"`, Kind: "pipe"},
	})
	b := New(relations, unreachableReasoningClient(), ReasoningParams{})
	candidates := []domain.SearchResult{
		{Command: domain.CommandEntry{Name: "a"}},
		{Command: domain.CommandEntry{Name: "b"}},
	}

	graph := b.Build(context.Background(), "prompt", candidates)
	assert.Len(t, graph.Edges, 1)
	assert.NotEmpty(t, graph.Diagnostics)
}
