package vectorindex

import (
	"context"
	"sync"

	"github.com/smilemakc/orchestrate/internal/domain"
)

// MemoryIndex is an in-process Index, used by tests and as the backend
// the orchestrate command falls back to when no DSN is configured. It
// does not survive a process restart; see BunIndex for the persistent
// backend.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.CommandEntry
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]domain.CommandEntry)}
}

func (idx *MemoryIndex) Upsert(ctx context.Context, entries []domain.CommandEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, e := range entries {
		idx.entries[e.Name] = e
	}
	return nil
}

func (idx *MemoryIndex) Search(ctx context.Context, query []float32, k int, threshold float64) ([]domain.SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	candidates := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		candidates = append(candidates, scored{entry: e, score: cosineSimilarity(query, e.Embedding)})
	}
	return rank(candidates, k, threshold), nil
}

func (idx *MemoryIndex) Count(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

func (idx *MemoryIndex) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = make(map[string]domain.CommandEntry)
	return nil
}
