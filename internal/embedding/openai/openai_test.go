package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type datum struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingsHandler answers with one [i, len(text), 1] vector per input, in
// reverse index order.
func embeddingsHandler(t *testing.T, calls *atomic.Int32, fail func(n int32) int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if fail != nil {
			if status := fail(n); status != 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":{"message":"upstream failed","type":"server_error"}}`))
				return
			}
		}
		var req embeddingsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		data := make([]datum, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, datum{
				Object:    "embedding",
				Embedding: []float32{float32(i), float32(len(req.Input[i])), 1},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	})
	return mux
}

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = srv.URL + "/v1"
	cfg.APIKey = "test-key"
	c, err := NewClient(cfg)
	require.NoError(t, err)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("RESUMERAG_TEST_KEY", "")

	_, err := NewClient(Config{APIKeyEnv: "RESUMERAG_TEST_KEY"})
	assert.EqualError(t, err, "missing API key in env RESUMERAG_TEST_KEY")
}

func TestNewClient_KeyFromEnv(t *testing.T) {
	t.Setenv("RESUMERAG_TEST_KEY", "k")

	c, err := NewClient(Config{APIKeyEnv: "RESUMERAG_TEST_KEY", Dimensions: 512})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, 512, c.Dimension())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(embeddingsHandler(t, &calls, nil))
	defer srv.Close()
	c := newTestClient(t, srv, Config{})

	vs, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vs, 3)
	for i, v := range vs {
		assert.Equal(t, float32(i), v[0])
		assert.Equal(t, float32(i+1), v[1])
	}
	assert.Equal(t, 3, c.Dimension())
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedBatch_SplitsBatches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(embeddingsHandler(t, &calls, nil))
	defer srv.Close()
	c := newTestClient(t, srv, Config{BatchSize: 2})

	vs, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "e"})
	require.NoError(t, err)
	require.Len(t, vs, 5)
	assert.Equal(t, float32(4), vs[3][1])
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbed_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(embeddingsHandler(t, &calls, func(n int32) int {
		if n <= 2 {
			return http.StatusInternalServerError
		}
		return 0
	}))
	defer srv.Close()
	c := newTestClient(t, srv, Config{MaxRetries: 3})

	v, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, float32(5), v[1])
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbed_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(embeddingsHandler(t, &calls, func(int32) int { return http.StatusTooManyRequests }))
	defer srv.Close()
	c := newTestClient(t, srv, Config{MaxRetries: 2})

	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai embeddings failed")
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbed_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(embeddingsHandler(t, &calls, func(int32) int { return http.StatusBadRequest }))
	defer srv.Close()
	c := newTestClient(t, srv, Config{MaxRetries: 4})

	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbed_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	inner := embeddingsHandler(t, &calls, func(n int32) int {
		if n == 1 {
			return http.StatusTooManyRequests
		}
		return 0
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Load() == 0 {
			w.Header().Set("Retry-After", "2")
		}
		inner.ServeHTTP(w, r)
	}))
	defer srv.Close()
	c := newTestClient(t, srv, Config{MaxRetries: 2})
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{2 * time.Second}, delays)
}

func TestEmbed_BackoffWithoutRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(embeddingsHandler(t, &calls, func(n int32) int {
		if n == 1 {
			return http.StatusServiceUnavailable
		}
		return 0
	}))
	defer srv.Close()
	c := newTestClient(t, srv, Config{MaxRetries: 2})
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{retryDelay(0)}, delays)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
	assert.Equal(t, 10*time.Second, parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(1))
	assert.Equal(t, 3200*time.Millisecond, retryDelay(4))
	assert.Equal(t, 5*time.Second, retryDelay(5))
	assert.Equal(t, 5*time.Second, retryDelay(80))
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(context.Canceled))
	assert.False(t, retryable(context.DeadlineExceeded))
	assert.True(t, retryable(errIncomplete))
}

func TestSleepCtx_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
