package plan

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

func TestCompiler_Compile_StepsBecomeNodesInOrder(t *testing.T) {
	p, ok := Lookup("volume-too-low")
	require.True(t, ok)

	c := NewCompiler(unreachableReasoningClient(), ReasoningParams{})
	graph := c.Compile(context.Background(), p)

	require.Len(t, graph.Nodes, len(p.Steps))
	for i, step := range p.Steps {
		assert.Equal(t, step.Command, graph.Nodes[i].Command)
		assert.Equal(t, step.Args, graph.Nodes[i].Args)
	}
}

func TestCompiler_Compile_DependsOnBecomesSequenceEdges(t *testing.T) {
	p := NewBuilder("test", "audio").
		AddStep(NewStepBuilder("first", "true").Build()).
		AddStep(NewStepBuilder("second", "true").DependsOn("first").Build()).
		Build()

	c := NewCompiler(unreachableReasoningClient(), ReasoningParams{})
	graph := c.Compile(context.Background(), p)

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, domain.EdgeSequence, graph.Edges[0].Kind)
	assert.Equal(t, "n0", graph.Edges[0].From)
	assert.Equal(t, "n1", graph.Edges[0].To)
}

func TestCompiler_Compile_UnknownDependencyIsIgnored(t *testing.T) {
	p := NewBuilder("test", "audio").
		AddStep(NewStepBuilder("only", "true").DependsOn("nonexistent").Build()).
		Build()

	c := NewCompiler(unreachableReasoningClient(), ReasoningParams{})
	graph := c.Compile(context.Background(), p)

	assert.Len(t, graph.Nodes, 1)
	assert.Empty(t, graph.Edges)
}
