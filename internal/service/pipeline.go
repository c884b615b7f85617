// Package service implements the query pipeline: it builds an index over a
// unit list and answers free-text queries with ranked units.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"resumerag/internal/domain"
	"resumerag/internal/embedding"
	"resumerag/internal/logger"
	"resumerag/internal/normalizer"
	"resumerag/internal/record"
)

// DefaultK is the number of results returned when a caller passes k <= 0.
const DefaultK = 3

// Generation identifies one completed build.
type Generation struct {
	// Seq increases by one with every successful build of a Pipeline.
	Seq       uint64    `json:"seq"`
	ID        string    `json:"id"`
	Units     int       `json:"units"`
	Dimension int       `json:"dimension"`
	Embedder  string    `json:"embedder"`
	Index     string    `json:"index"`
	BuiltAt   time.Time `json:"built_at"`
}

// Result is a resolved hit.
type Result struct {
	Unit     domain.Unit
	Distance float64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDefaultK overrides DefaultK.
func WithDefaultK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.defaultK = k
		}
	}
}

// Pipeline answers queries against the most recently built snapshot.
// It starts unready; every query fails with domain.ErrNotInitialized until
// Build succeeds. Queries never take a pipeline-wide lock.
type Pipeline struct {
	embedder domain.Embedder
	builder  domain.IndexBuilder
	defaultK int
	now      func() time.Time

	buildMu sync.Mutex
	seq     uint64
	current atomic.Pointer[snapshot]
}

// NewPipeline creates an unready pipeline.
func NewPipeline(embedder domain.Embedder, builder domain.IndexBuilder, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder: embedding.NewGuard(embedder),
		builder:  builder,
		defaultK: DefaultK,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultK returns the k used when callers pass k <= 0.
func (p *Pipeline) DefaultK() int { return p.defaultK }

// Build embeds units, builds a new index and atomically replaces the served
// snapshot. Handles are reassigned to unit positions. On error the previous
// snapshot, if any, keeps serving.
func (p *Pipeline) Build(ctx context.Context, units []domain.Unit) (Generation, error) {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	logger.Section("Build")
	owned := make([]domain.Unit, len(units))
	copy(owned, units)
	for i := range owned {
		owned[i].Handle = i
	}
	texts := normalizer.Texts(owned)

	emb := p.embedder
	var vectors []domain.Vector
	if len(owned) > 0 {
		if fitter, ok := emb.(domain.CorpusFitter); ok {
			fitted, err := fitter.Fit(ctx, texts)
			if err != nil {
				return Generation{}, fmt.Errorf("fit embedder: %w", err)
			}
			emb = fitted
		}
		var err error
		vectors, err = emb.EmbedBatch(ctx, texts)
		if err != nil {
			return Generation{}, fmt.Errorf("embed units: %w", err)
		}
		if len(vectors) != len(owned) {
			return Generation{}, fmt.Errorf("embed units: got %d vectors for %d units", len(vectors), len(owned))
		}
		logger.Debug("embedded units", "units", len(owned), "dimension", emb.Dimension(), "embedder", emb.Name())
	}

	index, err := p.builder.Build(ctx, vectors)
	if err != nil {
		return Generation{}, fmt.Errorf("build index: %w", err)
	}
	if index.Len() != len(owned) {
		_ = index.Close()
		return Generation{}, fmt.Errorf("build index: %d vectors indexed for %d units", index.Len(), len(owned))
	}

	p.seq++
	gen := Generation{
		Seq:       p.seq,
		ID:        uuid.New().String(),
		Units:     len(owned),
		Dimension: index.Dimension(),
		Embedder:  emb.Name(),
		Index:     p.builder.Name(),
		BuiltAt:   p.now(),
	}
	next := &snapshot{gen: gen, embedder: emb, index: index, units: owned}
	if prev := p.current.Swap(next); prev != nil {
		go prev.retire()
	}
	logger.Info("index built", "generation", gen.Seq, "units", gen.Units, "dimension", gen.Dimension,
		"embedder", gen.Embedder, "index", gen.Index)
	return gen, nil
}

// BuildRecord normalizes rec and builds it.
func (p *Pipeline) BuildRecord(ctx context.Context, rec *record.Record) (Generation, error) {
	return p.Build(ctx, normalizer.Normalize(rec))
}

// Ready reports whether a build has completed.
func (p *Pipeline) Ready() bool { return p.current.Load() != nil }

// Generation returns the generation being served.
func (p *Pipeline) Generation() (Generation, bool) {
	snap := p.current.Load()
	if snap == nil {
		return Generation{}, false
	}
	return snap.gen, true
}

// Units returns a copy of the served unit list.
func (p *Pipeline) Units() ([]domain.Unit, error) {
	snap := p.current.Load()
	if snap == nil {
		return nil, domain.ErrNotInitialized
	}
	out := make([]domain.Unit, len(snap.units))
	copy(out, snap.units)
	return out, nil
}

// Query returns up to k units ranked by ascending distance to q.
func (p *Pipeline) Query(ctx context.Context, q string, k int) ([]domain.Unit, error) {
	results, err := p.Search(ctx, q, k)
	if err != nil {
		return nil, err
	}
	units := make([]domain.Unit, len(results))
	for i := range results {
		units[i] = results[i].Unit
	}
	return units, nil
}

// Search is Query with distances attached.
func (p *Pipeline) Search(ctx context.Context, q string, k int) ([]Result, error) {
	if k <= 0 {
		k = p.defaultK
	}
	for {
		snap := p.current.Load()
		if snap == nil {
			return nil, domain.ErrNotInitialized
		}
		results, retired, err := snap.search(ctx, q, k)
		if retired {
			// Swapped out and closed between Load and search.
			continue
		}
		return results, err
	}
}

// Close releases the served index. The pipeline is unready afterwards.
func (p *Pipeline) Close() error {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()
	if snap := p.current.Swap(nil); snap != nil {
		return snap.retire()
	}
	return nil
}

// snapshot is one immutable {embedder, index, units} triple.
type snapshot struct {
	gen      Generation
	embedder domain.Embedder
	index    domain.Index
	units    []domain.Unit

	mu     sync.RWMutex
	closed bool
}

func (s *snapshot) search(ctx context.Context, q string, k int) ([]Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, true, nil
	}
	if len(s.units) == 0 {
		return []Result{}, false, nil
	}
	vec, err := s.embedder.Embed(ctx, q)
	if err != nil {
		return nil, false, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.index.Search(ctx, vec, k)
	if err != nil {
		return nil, false, fmt.Errorf("search index: %w", err)
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Handle < 0 || h.Handle >= len(s.units) {
			logger.Warn("dropping unresolvable handle", "handle", h.Handle, "generation", s.gen.Seq)
			continue
		}
		results = append(results, Result{Unit: s.units[h.Handle], Distance: h.Distance})
	}
	logger.Debug("query answered", "query", q, "k", k, "results", len(results), "generation", s.gen.Seq)
	return results, false, nil
}

// retire waits for in-flight searches, then closes the index.
func (s *snapshot) retire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.index.Close(); err != nil {
		logger.Warn("closing retired index failed", "generation", s.gen.Seq, "error", err)
		return err
	}
	return nil
}
