// Package vectorstore contains helpers shared by the index backends in its
// subpackages: L2 distance and deterministic hit ordering.
package vectorstore

import (
	"fmt"
	"sort"

	"resumerag/internal/domain"
)

// SquaredL2 returns the squared Euclidean distance between a and b, which
// must have the same length.
func SquaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// SortHits orders hits by ascending distance, breaking ties by ascending handle.
func SortHits(hits []domain.Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Handle < hits[j].Handle
	})
}

// CheckDimensions verifies every vector is non-empty and shares one length,
// and returns that length (0 for an empty slice).
func CheckDimensions(vectors []domain.Vector) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("vector 0 is empty: %w", domain.ErrDimensionMismatch)
	}
	for _, v := range vectors[1:] {
		if len(v) != dim {
			return 0, &domain.DimensionMismatchError{Want: dim, Got: len(v)}
		}
	}
	return dim, nil
}
