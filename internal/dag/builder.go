// Package dag implements the DAG Builder (C6): turning a ranked
// candidate list into a typed, acyclic execution graph.
package dag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/reasoning"
)

// ReasoningParams is the fixed parameter set every edge-rationale call
// uses.
type ReasoningParams struct {
	Model     string
	MaxTokens int
}

// Builder is the DAG Builder (C6).
type Builder struct {
	relations *RelationTable
	reason    *reasoning.Client
	params    ReasoningParams
	argsPolicy map[string][]string
}

// New wires Builder's collaborators. A nil relation table uses
// DefaultRelations.
func New(relations *RelationTable, reason *reasoning.Client, params ReasoningParams) *Builder {
	if relations == nil {
		relations = NewRelationTable(DefaultRelations)
	}
	return &Builder{relations: relations, reason: reason, params: params, argsPolicy: defaultArgsPolicy()}
}

// Build produces a Graph from the candidate list, per §4.6's algorithm.
func (b *Builder) Build(ctx context.Context, prompt string, candidates []domain.SearchResult) domain.Graph {
	nodes := make([]domain.Node, len(candidates))
	for i, c := range candidates {
		id := fmt.Sprintf("n%d", i)
		nodes[i] = domain.Node{
			ID:      id,
			Command: c.Command.Name,
			Args:    b.argsFor(c.Command.Name, prompt),
			Metadata: map[string]any{
				"score":     c.Score,
				"rationale": c.Rationale,
				"section":   c.Command.Section,
			},
		}
	}

	edges := b.inferEdges(nodes)
	edges, diagnostics := breakCycles(nodes, edges)

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	applyInputs(nodes, edges)

	for i := range edges {
		edges[i].Rationale = b.edgeRationale(ctx, nodes, edges[i])
	}

	return domain.Graph{Nodes: nodes, Edges: edges, Diagnostics: diagnostics}
}

// inferEdges declares an edge producer->consumer wherever the relation
// table matches, in candidate-ranking order (node iteration order per
// §4.6's determinism requirement).
func (b *Builder) inferEdges(nodes []domain.Node) []domain.Edge {
	var edges []domain.Edge
	for i, producer := range nodes {
		for j, consumer := range nodes {
			if i == j {
				continue
			}
			if kind, ok := b.relations.Kind(producer.Command, consumer.Command); ok {
				edges = append(edges, domain.Edge{From: producer.ID, To: consumer.ID, Kind: domain.EdgeKind(kind)})
			}
		}
	}
	return edges
}

// applyInputs fills Node.Inputs from the pipe/sequence edges that target
// each node, so the executor can read producer ordering straight off
// the node. It appends one input per inbound edge of either kind.
// Producers are not merged into intermediate nodes: when several
// candidates match a relation's producer side for the same consumer
// (e.g. pactl and amixer both feeding grep), that consumer gets one
// input and one pipe edge per producer.
func applyInputs(nodes []domain.Node, edges []domain.Edge) {
	byID := make(map[string]int, len(nodes))
	for i, n := range nodes {
		byID[n.ID] = i
	}
	for _, e := range edges {
		idx, ok := byID[e.To]
		if !ok {
			continue
		}
		nodes[idx].Inputs = append(nodes[idx].Inputs, e.From)
	}
}

func (b *Builder) edgeRationale(ctx context.Context, nodes []domain.Node, e domain.Edge) string {
	from := nodeCommand(nodes, e.From)
	to := nodeCommand(nodes, e.To)
	text, ok := b.reason.Complete(ctx, reasoning.EdgeRationalePrompt(from, to, string(e.Kind)), reasoning.Params{
		Model:       b.params.Model,
		MaxTokens:   b.params.MaxTokens,
		Temperature: 0.2,
	})
	if !ok {
		return fmt.Sprintf("%s → %s", e.From, e.To)
	}
	return text
}

func nodeCommand(nodes []domain.Node, id string) string {
	for _, n := range nodes {
		if n.ID == id {
			return n.Command
		}
	}
	return id
}

func (b *Builder) argsFor(command, prompt string) []string {
	if args, ok := b.argsPolicy[command]; ok {
		if command == "grep" || command == "egrep" {
			return append([]string{"-i"}, keyword(prompt))
		}
		return args
	}
	return nil
}

// defaultArgsPolicy is the policy table §4.6 requires: arguments keyed
// by command name, falling back to the bare command when a name is
// absent. Entries here mirror the commands the default relation table
// knows how to chain.
func defaultArgsPolicy() map[string][]string {
	return map[string][]string{
		"pactl":   {"list", "sinks"},
		"amixer":  {"sget", "Master"},
		"aplay":   {"-l"},
		"arecord": {"-l"},
		"ps":      {"aux"},
		"grep":    {"-i"},
		"egrep":   {"-i"},
	}
}

// keyword extracts a single search term from the prompt for grep-family
// commands, deterministically: the last word not in a short stopword
// list, singularized. Given the same prompt, the same keyword is always
// chosen.
func keyword(prompt string) string {
	stop := map[string]bool{
		"the": true, "a": true, "an": true, "is": true, "are": true,
		"my": true, "show": true, "list": true, "of": true, "to": true,
		"too": true, "low": true, "no": true,
	}
	words := strings.Fields(strings.ToLower(prompt))
	for i := len(words) - 1; i >= 0; i-- {
		w := strings.Trim(words[i], ".,!?")
		if w != "" && !stop[w] {
			return singularize(w)
		}
	}
	return ""
}

// singularize strips a plain trailing "s" so that, e.g., "volumes"
// greps for "volume". It leaves words ending in "ss" (e.g. "class")
// alone, since those aren't plurals.
func singularize(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}
