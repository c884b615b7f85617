package domain

import "context"

// Vector is a dense embedding. Vectors are never mutated once produced.
type Vector []float32

// Unit is a single retrievable fragment of a resume.
type Unit struct {
	// Handle joins the unit to its vector in the index. It equals the unit's
	// position in the unit list of the build that produced it.
	Handle   int
	Text     string
	Metadata Metadata
}

// Hit is a single nearest-neighbour match returned by an Index.
type Hit struct {
	Handle   int
	Distance float64
}

// Embedder converts free text into a numeric vector representation.
// Embed(t) must equal EmbedBatch([t])[0] for the lifetime of the process.
type Embedder interface {
	Name() string
	// Dimension returns 0 until the first vector has been produced.
	Dimension() int
	Embed(ctx context.Context, text string) (Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// CorpusFitter is implemented by embedders that need a preparation phase over
// the corpus. Fit returns a new embedder bound to corpus and leaves the
// receiver untouched.
type CorpusFitter interface {
	Fit(ctx context.Context, corpus []string) (Embedder, error)
}

// Index is an immutable nearest-neighbour index over vectors addressed by handle.
type Index interface {
	Len() int
	Dimension() int
	// Search returns at most k hits ordered by ascending distance, ties
	// broken by ascending handle.
	Search(ctx context.Context, query Vector, k int) ([]Hit, error)
	Close() error
}

// IndexBuilder builds an Index from vectors. Handle i is assigned to vectors[i].
type IndexBuilder interface {
	Name() string
	Build(ctx context.Context, vectors []Vector) (Index, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
