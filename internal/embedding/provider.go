// Package embedding provides the deterministic text-to-vector mapping
// used by both the corpus indexer and semantic search.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	domainerrors "github.com/smilemakc/orchestrate/internal/domain/errors"
)

// Dimension is the fixed vector length every embedding produces, per
// spec §3 (d=384). The length is not checked at query time: the vector
// index scores a query whose length differs from a stored embedding's
// as similarity 0 rather than rejecting it.
const Dimension = 384

// Provider maps text to a fixed-dimension vector, deterministically.
// There is no real model backing this in this environment; the
// contract (§4.2) only requires determinism and a fixed dimension, and
// a seeded hash embedding satisfies both exactly without a network
// dependency.
type Provider struct {
	modelID   string
	batchSize int

	mu    sync.Mutex
	cache map[string][]float32

	retry RetryPolicy
}

// RetryPolicy bounds the retry applied around a single embed call. A
// single failure must not abort a whole indexing run (§4.1), so the
// indexer calls through Provider.Embed which retries internally.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy mirrors the bounded exponential backoff used
// elsewhere in this module for transient failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond, Multiplier: 2.0}
}

// NewProvider creates a Provider. batchSize only affects how many texts
// EmbedBatch processes per internal pass; the contract is per-element so
// callers never observe batching.
func NewProvider(modelID string, batchSize int) *Provider {
	if batchSize <= 0 {
		batchSize = 16
	}
	return &Provider{
		modelID:   modelID,
		batchSize: batchSize,
		cache:     make(map[string][]float32),
		retry:     DefaultRetryPolicy(),
	}
}

// Embed returns the vector for text, deterministically. Identical text
// and model id always returns the bitwise-identical vector.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := p.cacheKey(text)

	p.mu.Lock()
	if v, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return v, nil
	}
	p.mu.Unlock()

	var v []float32
	var err error
	delay := p.retry.InitialDelay
	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		v, err = compute(text)
		if err == nil {
			break
		}
		if attempt == p.retry.MaxAttempts {
			return nil, domainerrors.NewExecutionError("", "", "", "embedding failed after retries", err, false)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.retry.Multiplier)
	}

	p.mu.Lock()
	p.cache[key] = v
	p.mu.Unlock()
	return v, nil
}

// EmbedBatch embeds each text, preserving order. It is a convenience
// wrapper; the per-element contract means callers can equivalently call
// Embed in a loop and observe the same vectors.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += p.batchSize {
		end := i + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		for j := i; j < end; j++ {
			v, err := p.Embed(ctx, texts[j])
			if err != nil {
				return nil, err
			}
			out[j] = v
		}
	}
	return out, nil
}

func (p *Provider) cacheKey(text string) string {
	return p.modelID + "\x00" + text
}

// compute derives a unit-length Dimension-length vector from text by
// hashing shingles with FNV-1a seeded per dimension. Two calls with the
// same text always produce the same bits; there is no randomness
// anywhere in this path.
func compute(text string) ([]float32, error) {
	tokens := shingles(text)
	vec := make([]float32, Dimension)

	if len(tokens) == 0 {
		return vec, nil
	}

	for _, tok := range tokens {
		for d := 0; d < Dimension; d++ {
			h := fnv.New32a()
			h.Write([]byte(tok))
			h.Write([]byte{byte(d), byte(d >> 8)})
			// Fold the hash into a signed unit contribution so opposite
			// tokens can cancel instead of every dimension only growing.
			sign := float32(1)
			if h.Sum32()%2 == 0 {
				sign = -1
			}
			h2 := fnv.New32a()
			h2.Write([]byte(tok))
			h2.Write([]byte(strconv.Itoa(d)))
			weight := float32(h2.Sum32()%1000) / 1000.0
			vec[d] += sign * weight
		}
	}

	normalize(vec)
	return vec, nil
}

// shingles tokenizes text into lowercase whitespace-separated words plus
// their 3-gram character shingles, giving the hash embedding some
// sensitivity to substrings shared between near-duplicate phrases.
func shingles(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.Fields(lower)
	out := make([]string, 0, len(fields)*2)
	out = append(out, fields...)

	const n = 3
	joined := strings.Join(fields, " ")
	for i := 0; i+n <= len(joined); i++ {
		out = append(out, joined[i:i+n])
	}
	return out
}

func normalize(vec []float32) {
	var sumSq float64
	for _, x := range vec {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}
