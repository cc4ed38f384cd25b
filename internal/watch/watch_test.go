package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "permits.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.Equal(t, dir, Root(file))
	assert.Equal(t, "data", Root("data/**/*.csv"))
	assert.Equal(t, dir, Root(dir))
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "a/b.csv", Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Name: "a/B.CSV", Op: fsnotify.Remove}))
	assert.False(t, relevant(fsnotify.Event{Name: "a/b.csv", Op: fsnotify.Chmod}))
	assert.False(t, relevant(fsnotify.Event{Name: "a/b.txt", Op: fsnotify.Write}))
}

func TestDebounce_CoalescesBurst(t *testing.T) {
	in := make(chan string)
	var batches [][]string
	done := make(chan struct{})
	go func() {
		Debounce(context.Background(), in, 20*time.Millisecond, func(b []string) {
			batches = append(batches, b)
		})
		close(done)
	}()

	in <- "b.csv"
	in <- "a.csv"
	in <- "b.csv"
	time.Sleep(100 * time.Millisecond)
	in <- "c.csv"
	close(in)
	<-done

	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a.csv", "b.csv"}, batches[0])
	assert.Equal(t, []string{"c.csv"}, batches[1])
}

func TestDebounce_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan string)
	done := make(chan struct{})
	fired := false
	go func() {
		Debounce(ctx, in, time.Hour, func([]string) { fired = true })
		close(done)
	}()

	in <- "a.csv"
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Debounce did not return after cancel")
	}
	assert.False(t, fired)
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var got []string
	rebuilt := make(chan struct{}, 1)
	go func() {
		_ = w.Run(ctx, func(_ context.Context, changed []string) error {
			mu.Lock()
			got = append(got, changed...)
			mu.Unlock()
			select {
			case rebuilt <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// give the event loop a moment to start
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "permits.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case <-rebuilt:
	case <-ctx.Done():
		t.Fatal("no rebuild after writing a CSV file")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, got, filepath.Join(dir, "permits.csv"))
	assert.NotContains(t, got, filepath.Join(dir, "notes.txt"))
}
