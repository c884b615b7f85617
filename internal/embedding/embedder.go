// Package embedding holds the embedding provider plumbing shared by the
// concrete adapters in its subpackages.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"resumerag/internal/domain"
)

// Guard wraps an embedder and enforces a single vector dimension. The
// dimension is committed by the inner embedder's reported Dimension or by the
// first vector produced, whichever comes first.
type Guard struct {
	inner domain.Embedder

	mu  sync.Mutex
	dim int
}

var (
	_ domain.Embedder     = (*Guard)(nil)
	_ domain.CorpusFitter = (*Guard)(nil)
)

// NewGuard wraps e. Wrapping a Guard returns it unchanged.
func NewGuard(e domain.Embedder) *Guard {
	if g, ok := e.(*Guard); ok {
		return g
	}
	return &Guard{inner: e, dim: e.Dimension()}
}

// Name returns the inner embedder's name.
func (g *Guard) Name() string { return g.inner.Name() }

// Dimension returns the committed dimension, or 0 before the first vector.
func (g *Guard) Dimension() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dim
}

// Embed embeds text and checks the vector length.
func (g *Guard) Embed(ctx context.Context, text string) (domain.Vector, error) {
	v, err := g.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := g.check(v); err != nil {
		return nil, err
	}
	return v, nil
}

// EmbedBatch embeds texts and checks alignment and every vector length.
func (g *Guard) EmbedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vs, err := g.inner.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vs) != len(texts) {
		return nil, fmt.Errorf("%s: got %d embeddings for %d texts", g.inner.Name(), len(vs), len(texts))
	}
	for _, v := range vs {
		if err := g.check(v); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

// Fit fits the inner embedder when it supports corpus preparation and
// returns a fresh Guard around the result. Other embedders are returned as is.
func (g *Guard) Fit(ctx context.Context, corpus []string) (domain.Embedder, error) {
	fitter, ok := g.inner.(domain.CorpusFitter)
	if !ok {
		return g, nil
	}
	fitted, err := fitter.Fit(ctx, corpus)
	if err != nil {
		return nil, err
	}
	return NewGuard(fitted), nil
}

func (g *Guard) check(v domain.Vector) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(v) == 0 {
		return fmt.Errorf("%s: empty embedding", g.inner.Name())
	}
	if g.dim == 0 {
		g.dim = len(v)
		return nil
	}
	if len(v) != g.dim {
		return &domain.DimensionMismatchError{Want: g.dim, Got: len(v)}
	}
	return nil
}

// EmbedEach implements EmbedBatch for embedders without a native batch call.
func EmbedEach(ctx context.Context, e domain.Embedder, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
