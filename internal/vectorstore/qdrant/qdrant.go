// Package qdrant provides an index backend stored in a Qdrant server.
// Every build writes a fresh collection so the served index is never
// modified in place; closing an index drops its collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"resumerag/internal/domain"
	"resumerag/internal/vectorstore"
)

// Config holds connection details for a Qdrant server.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	// BatchSize is the number of points per upsert request.
	BatchSize int
}

// Builder creates one collection per Build.
type Builder struct {
	url        string
	apiKey     string
	collection string
	batchSize  int
	client     *http.Client
}

var _ domain.IndexBuilder = (*Builder)(nil)

// NewBuilder creates a Qdrant index builder.
func NewBuilder(cfg Config) *Builder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "resume"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	return &Builder{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		batchSize:  cfg.BatchSize,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name returns the identifier of this backend.
func (b *Builder) Name() string { return "qdrant" }

// Build creates a Euclid collection and upserts vectors with point id = handle.
func (b *Builder) Build(ctx context.Context, vectors []domain.Vector) (domain.Index, error) {
	dim, err := vectorstore.CheckDimensions(vectors)
	if err != nil {
		return nil, err
	}
	ix := &Index{
		b:          b,
		collection: fmt.Sprintf("%s-%s", b.collection, uuid.New().String()[:8]),
		dimension:  dim,
		size:       len(vectors),
	}
	if len(vectors) == 0 {
		return ix, nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Euclid",
		},
	}
	if err := b.do(ctx, http.MethodPut, "/collections/"+ix.collection, body, nil); err != nil {
		return nil, err
	}
	for start := 0; start < len(vectors); start += b.batchSize {
		end := start + b.batchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		points := make([]map[string]any, 0, end-start)
		for h := start; h < end; h++ {
			points = append(points, map[string]any{
				"id":      h,
				"vector":  vectors[h],
				"payload": map[string]any{"handle": h},
			})
		}
		path := fmt.Sprintf("/collections/%s/points?wait=true", ix.collection)
		if err := b.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil); err != nil {
			_ = ix.Close()
			return nil, err
		}
	}
	return ix, nil
}

// Index is a built Qdrant collection.
type Index struct {
	b          *Builder
	collection string
	dimension  int
	size       int
}

func (ix *Index) Len() int       { return ix.size }
func (ix *Index) Dimension() int { return ix.dimension }

// Collection returns the name of the backing collection.
func (ix *Index) Collection() string { return ix.collection }

// Search runs an exact search over the whole collection, then orders hits
// by (distance, handle) and keeps the first k. Qdrant gives no order for
// equal scores, so a limit of k could cut the lower handle of a tie.
func (ix *Index) Search(ctx context.Context, query domain.Vector, k int) ([]domain.Hit, error) {
	if k <= 0 || ix.size == 0 {
		return nil, nil
	}
	if len(query) != ix.dimension {
		return nil, &domain.DimensionMismatchError{Want: ix.dimension, Got: len(query)}
	}
	req := map[string]any{
		"vector":       query,
		"limit":        ix.size,
		"with_payload": false,
		"params":       map[string]any{"exact": true},
	}
	var resp struct {
		Result []struct {
			ID    uint64  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", ix.collection)
	if err := ix.b.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.Hit{Handle: int(r.ID), Distance: r.Score})
	}
	vectorstore.SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close drops the collection.
func (ix *Index) Close() error {
	if ix.size == 0 {
		return nil
	}
	return ix.b.do(context.Background(), http.MethodDelete, "/collections/"+ix.collection, nil, nil)
}

func (b *Builder) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.url+path, rd)
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("api-key", b.apiKey)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, path, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
