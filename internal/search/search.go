// Package search implements the Semantic Search layer (C5): turning a
// prompt into a ranked, rationale-bearing candidate set.
package search

import (
	"context"

	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/embedding"
	"github.com/smilemakc/orchestrate/internal/reasoning"
	"github.com/smilemakc/orchestrate/internal/vectorindex"
)

// MaxLimit is the hard ceiling on the per-call limit (§4.5).
const MaxLimit = 50

// DefaultThreshold is the operating default the open question in §9
// resolves on: 0.3, not the 0.7 seen in earlier drafts of the source.
const DefaultThreshold = 0.3

// ReasoningParams is the fixed parameter set every selection-rationale
// call uses.
type ReasoningParams struct {
	Model     string
	MaxTokens int
}

// Search is the Semantic Search component.
type Search struct {
	embed  *embedding.Provider
	index  vectorindex.Index
	reason *reasoning.Client
	params ReasoningParams
}

// New wires Search's collaborators.
func New(embed *embedding.Provider, index vectorindex.Index, reason *reasoning.Client, params ReasoningParams) *Search {
	return &Search{embed: embed, index: index, reason: reason, params: params}
}

// Query runs the search algorithm in §4.5: embed, search the index,
// attach rationale with fallback, and preserve C3's sort order.
func (s *Search) Query(ctx context.Context, prompt string, limit int, threshold float64) ([]domain.SearchResult, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	vec, err := s.embed.Embed(ctx, prompt)
	if err != nil {
		return nil, err
	}

	results, err := s.index.Search(ctx, vec, limit, threshold)
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Rationale = s.rationale(ctx, prompt, results[i])
	}
	return results, nil
}

// rationale obtains a per-result rationale via the reasoning client,
// falling back to the command's own description (§4.5: "a rationale
// failure for one entry does not drop the entry").
func (s *Search) rationale(ctx context.Context, prompt string, result domain.SearchResult) string {
	text, ok := s.reason.Complete(ctx, reasoning.SelectionRationalePrompt(prompt, result.Command.Name, result.Command.Synopsis), reasoning.Params{
		Model:       s.params.Model,
		MaxTokens:   s.params.MaxTokens,
		Temperature: 0.2,
	})
	if !ok {
		return result.Command.Description
	}
	return text
}
