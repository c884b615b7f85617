// Package app assembles the retrieval components selected by configuration
// and owns the loaded record.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resumerag/internal/config"
	"resumerag/internal/domain"
	"resumerag/internal/embedding/hash"
	"resumerag/internal/embedding/openai"
	"resumerag/internal/embedding/tfidf"
	"resumerag/internal/logger"
	"resumerag/internal/presenter"
	"resumerag/internal/record"
	"resumerag/internal/service"
	"resumerag/internal/summarizer"
	"resumerag/internal/vectorstore/memory"
	"resumerag/internal/vectorstore/qdrant"
)

// App is a ready pipeline plus the record it was built from.
type App struct {
	cfg        *config.AppConfig
	pipeline   *service.Pipeline
	summarizer domain.Summarizer

	// useMu serializes builds with the record swap that follows them.
	useMu sync.Mutex

	mu      sync.RWMutex
	rec     *record.Record
	summary string
}

// NewEmbedder returns the embedder selected by cfg.
func NewEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "hash":
		return hash.NewEmbedder(cfg.Dimension), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:           cfg.OpenAI.BaseURL,
			APIKeyEnv:         cfg.OpenAI.APIKeyEnv,
			Model:             cfg.OpenAI.Model,
			Dimensions:        cfg.OpenAI.Dimensions,
			Timeout:           time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:         cfg.OpenAI.BatchSize,
			MaxRetries:        cfg.OpenAI.MaxRetries,
			RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

// NewIndexBuilder returns the index backend selected by cfg.
func NewIndexBuilder(cfg config.VectorStoreConfig) (domain.IndexBuilder, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewBuilder(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewBuilder(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

// New wires the components from cfg without loading anything.
func New(cfg *config.AppConfig) (*App, error) {
	emb, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	builder, err := NewIndexBuilder(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	return NewWith(cfg, service.NewPipeline(emb, builder, service.WithDefaultK(cfg.Query.K))), nil
}

// NewWith wraps an existing pipeline.
func NewWith(cfg *config.AppConfig, p *service.Pipeline) *App {
	return &App{cfg: cfg, pipeline: p, summarizer: summarizer.NewFrequencySummarizer()}
}

// Start loads the record and performs the initial build.
func Start(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := a.Reload(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload reads the record file and rebuilds the index. On any error the
// previously served record and index stay in place.
func (a *App) Reload(ctx context.Context) (service.Generation, error) {
	logger.Section("Load")
	rec, err := record.Load(a.cfg.Record.Path)
	if err != nil {
		return service.Generation{}, fmt.Errorf("load %s: %w", a.cfg.Record.Path, err)
	}
	return a.Use(ctx, rec)
}

// Use builds rec and makes it the current record. Concurrent calls are
// serialized so the record always belongs to the served generation.
func (a *App) Use(ctx context.Context, rec *record.Record) (service.Generation, error) {
	a.useMu.Lock()
	defer a.useMu.Unlock()
	gen, err := a.pipeline.BuildRecord(ctx, rec)
	if err != nil {
		return service.Generation{}, err
	}
	summary, err := a.summarizer.Summarize(rec.Basics.Summary, a.cfg.Summarizer.MaxSentences)
	if err != nil {
		summary = rec.Basics.Summary
	}
	a.mu.Lock()
	a.rec = rec
	a.summary = summary
	a.mu.Unlock()
	return gen, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.AppConfig { return a.cfg }

// Pipeline returns the query pipeline.
func (a *App) Pipeline() *service.Pipeline { return a.pipeline }

// Record returns the current record, or nil before the first load.
func (a *App) Record() *record.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rec
}

// Summary returns the condensed record summary.
func (a *App) Summary() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summary
}

// Facts returns the quick facts of the current record.
func (a *App) Facts() presenter.QuickFacts { return presenter.Facts(a.Record()) }

// Ask answers q: download intents are reported without touching the index.
func (a *App) Ask(ctx context.Context, q string, k int) (presenter.Intent, presenter.Answer, error) {
	if presenter.DetectIntent(q) == presenter.IntentDownload {
		return presenter.IntentDownload, presenter.Answer{Query: q, Related: []presenter.UnitView{}}, nil
	}
	results, err := a.pipeline.Search(ctx, q, k)
	if err != nil {
		return presenter.IntentSearch, presenter.Answer{}, err
	}
	return presenter.IntentSearch, presenter.NewAnswer(q, results), nil
}

// Close releases the pipeline.
func (a *App) Close() error { return a.pipeline.Close() }
