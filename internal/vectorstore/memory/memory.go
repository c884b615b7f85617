// Package memory provides an exact, brute-force L2 index held in memory.
package memory

import (
	"context"

	"resumerag/internal/domain"
	"resumerag/internal/vectorstore"
)

// Builder builds in-memory indexes.
type Builder struct{}

var _ domain.IndexBuilder = Builder{}

// NewBuilder returns an in-memory index builder.
func NewBuilder() Builder { return Builder{} }

// Name returns the identifier of this backend.
func (Builder) Name() string { return "memory" }

// Build copies vectors into a contiguous buffer. Handle i is vectors[i].
func (Builder) Build(_ context.Context, vectors []domain.Vector) (domain.Index, error) {
	dim, err := vectorstore.CheckDimensions(vectors)
	if err != nil {
		return nil, err
	}
	data := make([]float32, 0, dim*len(vectors))
	for _, v := range vectors {
		data = append(data, v...)
	}
	return &Index{dimension: dim, size: len(vectors), data: data}, nil
}

// Index is immutable after Build and safe for concurrent Search.
type Index struct {
	dimension int
	size      int
	data      []float32
}

func (ix *Index) Len() int       { return ix.size }
func (ix *Index) Dimension() int { return ix.dimension }
func (ix *Index) Close() error   { return nil }

// Search scans every vector and returns the k nearest by squared L2 distance.
func (ix *Index) Search(ctx context.Context, query domain.Vector, k int) ([]domain.Hit, error) {
	if k <= 0 || ix.size == 0 {
		return nil, nil
	}
	if len(query) != ix.dimension {
		return nil, &domain.DimensionMismatchError{Want: ix.dimension, Got: len(query)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, ix.size)
	for i := 0; i < ix.size; i++ {
		row := ix.data[i*ix.dimension : (i+1)*ix.dimension]
		hits[i] = domain.Hit{Handle: i, Distance: vectorstore.SquaredL2(row, query)}
	}
	vectorstore.SortHits(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}
