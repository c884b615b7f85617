// Package hash provides a deterministic, corpus-free embedder that hashes
// word tokens into a fixed number of buckets. It needs no model or network
// and is the provider used by tests and offline runs.
package hash

import (
	"context"
	"hash/fnv"
	"math"

	"resumerag/internal/domain"
	"resumerag/internal/embedding"
)

// DefaultDimension is used when a non-positive dimension is requested.
const DefaultDimension = 256

// Embedder maps text to an L2-normalized bag of hashed tokens.
type Embedder struct {
	dimension int
}

var _ domain.Embedder = (*Embedder)(nil)

// NewEmbedder creates a hashing embedder producing vectors of length dimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

func (e *Embedder) Name() string   { return "hash" }
func (e *Embedder) Dimension() int { return e.dimension }

// Embed hashes each token into a bucket with a hash-derived sign.
func (e *Embedder) Embed(_ context.Context, text string) (domain.Vector, error) {
	acc := make([]float64, e.dimension)
	for _, tok := range embedding.Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimension))
		if sum>>63 == 1 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}
	norm := 0.0
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make(domain.Vector, e.dimension)
	for i, v := range acc {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out, nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	return embedding.EmbedEach(ctx, e, texts)
}
