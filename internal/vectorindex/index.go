// Package vectorindex persists CommandEntry records alongside their
// embeddings and answers top-k cosine-similarity queries above a
// threshold.
package vectorindex

import (
	"context"
	"math"
	"sort"

	"github.com/smilemakc/orchestrate/internal/domain"
)

// Index is the contract every backing store satisfies (§4.3).
type Index interface {
	// Upsert writes entries, idempotent by CommandEntry.Name.
	Upsert(ctx context.Context, entries []domain.CommandEntry) error
	// Search returns up to k entries with cosine similarity >= threshold,
	// sorted descending by score, ties broken by name.
	Search(ctx context.Context, query []float32, k int, threshold float64) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Scored pairs an entry with its similarity score, used internally by
// both backends before the shared ranking step below.
type scored struct {
	entry domain.CommandEntry
	score float64
}

// rank applies the shared sort/threshold/truncate policy so both
// backends produce identical ordering for identical inputs.
func rank(candidates []scored, k int, threshold float64) []domain.SearchResult {
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.score >= threshold {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].score != filtered[j].score {
			return filtered[i].score > filtered[j].score
		}
		return filtered[i].entry.Name < filtered[j].entry.Name
	})

	if k > 0 && len(filtered) > k {
		filtered = filtered[:k]
	}

	out := make([]domain.SearchResult, len(filtered))
	for i, c := range filtered {
		out[i] = domain.SearchResult{Command: c.entry, Score: c.score}
	}
	return out
}

// cosineSimilarity assumes both vectors are already unit-normalized, as
// every embedding produced by internal/embedding is; it is then a plain
// dot product.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if math.IsNaN(dot) {
		return 0
	}
	return dot
}
