package plan

import (
	"context"
	"fmt"

	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/reasoning"
)

// ReasoningParams is the fixed parameter set used for every plan-node
// and plan-edge rationale call, applying the same centralized selection
// and edge prompts C5 and C6 use (§4.9: "Reasoning is injected via the
// same C4 prompts, applied to every plan node and every compiled edge").
type ReasoningParams struct {
	Model     string
	MaxTokens int
}

// Compiler turns a Plan into the same Graph shape C6 produces, so C7
// and the trace collector need no plan-mode-specific handling.
type Compiler struct {
	reason *reasoning.Client
	params ReasoningParams
}

// NewCompiler wires the Compiler's reasoning client.
func NewCompiler(reason *reasoning.Client, params ReasoningParams) *Compiler {
	return &Compiler{reason: reason, params: params}
}

// Compile produces a Graph from p. Steps become nodes in declaration
// order (ids n0..nN); DependsOn labels become sequence edges, since a
// hand-authored plan encodes ordering intent, not a data pipe, between
// its steps. Compile never emits a pipe edge, so no compiled step
// receives another step's stdout on its stdin.
func (c *Compiler) Compile(ctx context.Context, p Plan) domain.Graph {
	idxByLabel := make(map[string]string, len(p.Steps))
	nodes := make([]domain.Node, len(p.Steps))

	for i, step := range p.Steps {
		id := nodeID(i)
		idxByLabel[step.Label] = id
		nodes[i] = domain.Node{
			ID:      id,
			Command: step.Command,
			Args:    step.Args,
			Metadata: map[string]any{
				"label":       step.Label,
				"description": step.Description,
			},
		}
	}

	var edges []domain.Edge
	for _, step := range p.Steps {
		to := idxByLabel[step.Label]
		for _, dep := range step.DependsOn {
			from, ok := idxByLabel[dep]
			if !ok {
				continue
			}
			edges = append(edges, domain.Edge{From: from, To: to, Kind: domain.EdgeSequence})
		}
	}

	for i := range nodes {
		nodes[i].Metadata["rationale"] = c.nodeRationale(ctx, p, nodes[i])
	}
	for i := range edges {
		edges[i].Rationale = c.edgeRationale(ctx, nodes, edges[i])
	}
	applyInputs(nodes, edges)

	return domain.Graph{Nodes: nodes, Edges: edges}
}

func applyInputs(nodes []domain.Node, edges []domain.Edge) {
	byID := make(map[string]int, len(nodes))
	for i, n := range nodes {
		byID[n.ID] = i
	}
	for _, e := range edges {
		if e.Kind != domain.EdgePipe {
			continue
		}
		if idx, ok := byID[e.To]; ok {
			nodes[idx].Inputs = append(nodes[idx].Inputs, e.From)
		}
	}
}

func (c *Compiler) nodeRationale(ctx context.Context, p Plan, n domain.Node) string {
	description, _ := n.Metadata["description"].(string)
	text, ok := c.reason.Complete(ctx, reasoning.SelectionRationalePrompt(p.Name, n.Command, description), reasoning.Params{
		Model:       c.params.Model,
		MaxTokens:   c.params.MaxTokens,
		Temperature: 0.2,
	})
	if !ok {
		return description
	}
	return text
}

func (c *Compiler) edgeRationale(ctx context.Context, nodes []domain.Node, e domain.Edge) string {
	from, to := commandOf(nodes, e.From), commandOf(nodes, e.To)
	text, ok := c.reason.Complete(ctx, reasoning.EdgeRationalePrompt(from, to, string(e.Kind)), reasoning.Params{
		Model:       c.params.Model,
		MaxTokens:   c.params.MaxTokens,
		Temperature: 0.2,
	})
	if !ok {
		return e.From + " → " + e.To
	}
	return text
}

func commandOf(nodes []domain.Node, id string) string {
	for _, n := range nodes {
		if n.ID == id {
			return n.Command
		}
	}
	return id
}

func nodeID(i int) string {
	return fmt.Sprintf("n%d", i)
}
