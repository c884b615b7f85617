package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/config"
	"resumerag/internal/domain"
	"resumerag/internal/presenter"
	"resumerag/internal/record"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Record.Path = filepath.Join("testdata", "resume.json")
	cfg.Record.Document = filepath.Join(t.TempDir(), "resume.pdf")
	cfg.Embedder.Type = "hash"
	return cfg
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(config.EmbedderConfig{Type: "tfidf"})
	require.NoError(t, err)
	assert.Equal(t, "tfidf", e.Name())

	e, err = NewEmbedder(config.EmbedderConfig{Type: "hash", Dimension: 64})
	require.NoError(t, err)
	assert.Equal(t, 64, e.Dimension())

	t.Setenv("RESUMERAG_TEST_OPENAI", "k")
	e, err = NewEmbedder(config.EmbedderConfig{Type: "openai", OpenAI: &config.OpenAIEmbedderConfig{APIKeyEnv: "RESUMERAG_TEST_OPENAI"}})
	require.NoError(t, err)
	assert.Equal(t, "openai", e.Name())

	_, err = NewEmbedder(config.EmbedderConfig{Type: "openai"})
	assert.Error(t, err)
	_, err = NewEmbedder(config.EmbedderConfig{Type: "bert"})
	assert.EqualError(t, err, "unknown embedder: bert")
}

func TestNewIndexBuilder(t *testing.T) {
	b, err := NewIndexBuilder(config.VectorStoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())

	b, err = NewIndexBuilder(config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333"}})
	require.NoError(t, err)
	assert.Equal(t, "qdrant", b.Name())

	_, err = NewIndexBuilder(config.VectorStoreConfig{Type: "qdrant"})
	assert.Error(t, err)
	_, err = NewIndexBuilder(config.VectorStoreConfig{Type: "faiss"})
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	a, err := Start(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Pipeline().Ready())
	require.NotNil(t, a.Record())
	assert.Equal(t, "Jane Doe", a.Record().Basics.Name)
	assert.Equal(t, "Backend engineer building reliable systems. Enjoys distributed storage.", a.Summary())
	assert.Equal(t, presenter.QuickFacts{Name: "Jane Doe", Experience: 8, Projects: 25, Location: "Berlin, Germany"}, a.Facts())

	gen, ok := a.Pipeline().Generation()
	require.True(t, ok)
	assert.Equal(t, 1+2+1+1, gen.Units)
}

func TestStart_MissingRecord(t *testing.T) {
	cfg := testConfig(t)
	cfg.Record.Path = filepath.Join(t.TempDir(), "missing.json")

	_, err := Start(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}

func TestAsk(t *testing.T) {
	a, err := Start(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	intent, ans, err := a.Ask(context.Background(), "Led migration to AWS", 2)
	require.NoError(t, err)
	assert.Equal(t, presenter.IntentSearch, intent)
	require.NotNil(t, ans.Primary)
	assert.Equal(t, "experience", ans.Primary.Kind)
	assert.Len(t, ans.Related, 1)

	intent, ans, err = a.Ask(context.Background(), "can I download your resume?", 0)
	require.NoError(t, err)
	assert.Equal(t, presenter.IntentDownload, intent)
	assert.Nil(t, ans.Primary)
}

func TestAsk_NotInitialized(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	_, _, err = a.Ask(context.Background(), "aws", 1)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.Nil(t, a.Record())
}

func TestReload_MalformedKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.json")
	data, err := os.ReadFile(filepath.Join("testdata", "resume.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := testConfig(t)
	cfg.Record.Path = path
	a, err := Start(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	before, _ := a.Pipeline().Generation()

	require.NoError(t, os.WriteFile(path, []byte(`{"basics": {}, "employment": []}`), 0o644))
	_, err = a.Reload(context.Background())
	require.ErrorIs(t, err, domain.ErrMalformedRecord)

	after, _ := a.Pipeline().Generation()
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Jane Doe", a.Record().Basics.Name)
}

// slowSummarizer delays summaries that contain slow.
type slowSummarizer struct {
	slow  string
	delay time.Duration
}

func (s slowSummarizer) Summarize(text string, _ int) (string, error) {
	if strings.Contains(text, s.slow) {
		time.Sleep(s.delay)
	}
	return text, nil
}

func namedRecord(name string) *record.Record {
	return &record.Record{
		Basics: record.Basics{Name: name, Summary: strings.ToLower(name) + " summary."},
		TechnicalSkills: record.TechnicalSkills{Categories: []record.SkillCategory{
			{Name: "Languages", Experience: "6 years", Items: []string{"Go"}},
		}},
	}
}

func TestUse_OverlappingBuildsKeepRecordAndIndexTogether(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()
	a.summarizer = slowSummarizer{slow: "old", delay: 100 * time.Millisecond}
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := a.Use(ctx, namedRecord("Old"))
		assert.NoError(t, err)
	}()
	time.Sleep(10 * time.Millisecond)
	_, err = a.Use(ctx, namedRecord("New"))
	require.NoError(t, err)
	wg.Wait()

	units, err := a.Pipeline().Units()
	require.NoError(t, err)
	served := strings.TrimPrefix(strings.SplitN(units[0].Text, "\n", 2)[0], "Name: ")
	assert.Equal(t, served, a.Record().Basics.Name)
	assert.Equal(t, served, a.Facts().Name)
	assert.Equal(t, strings.ToLower(served)+" summary.", a.Summary())
}
