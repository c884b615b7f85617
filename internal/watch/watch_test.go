package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	assert.True(t, Relevant(fsnotify.Event{Name: "a", Op: fsnotify.Write}))
	assert.True(t, Relevant(fsnotify.Event{Name: "a", Op: fsnotify.Create}))
	assert.False(t, Relevant(fsnotify.Event{Name: "a", Op: fsnotify.Chmod}))
	assert.False(t, Relevant(fsnotify.Event{Name: "a", Op: fsnotify.Remove}))
}

func TestRun_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var reloads atomic.Int32
	w := New(path, 20*time.Millisecond, func(context.Context) error {
		reloads.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"basics": {}}`), 0o644)
		return reloads.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var reloads atomic.Int32
	w := New(path, 10*time.Millisecond, func(context.Context) error {
		reloads.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}
	assert.Zero(t, reloads.Load())
}

func TestRun_FailedReloadKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var calls atomic.Int32
	w := New(path, 10*time.Millisecond, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("malformed")
		}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{}`), 0o644)
		return calls.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRun_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "resume.json"), 0, func(context.Context) error { return nil })
	assert.Error(t, w.Run(context.Background()))
}
