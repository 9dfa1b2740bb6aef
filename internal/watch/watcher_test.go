package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForSignal waits up to timeout for the channel to receive a value.
func waitForSignal(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherDetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan struct{}, 16)
	w := New(dir, func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	// Give the watch loop time to register.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.png"), []byte("x"), 0o644))

	assert.True(t, waitForSignal(changed, 2*time.Second), "expected a change signal for the new file")
}

func TestWatcherDetectsDeletedFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.png")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	changed := make(chan struct{}, 16)
	w := New(dir, func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(target))

	assert.True(t, waitForSignal(changed, 2*time.Second), "expected a change signal for the deleted file")
}

func TestWatcherIsNotRecursive(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan struct{}, 16)
	w := New(dir, func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Creating the subdirectory is itself an event in the watched dir.
	assert.True(t, waitForSignal(changed, 2*time.Second), "expected a signal for subdir creation")

	// Drain any duplicate events for the mkdir before the negative check.
	for waitForSignal(changed, 200*time.Millisecond) {
	}

	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.png"), []byte("x"), 0o644))
	assert.False(t, waitForSignal(changed, 500*time.Millisecond), "writes inside subdirectories should not signal")
}

func TestWatcherRewatchesRecreatedDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "images")
	require.NoError(t, os.Mkdir(dir, 0o755))

	changed := make(chan struct{}, 16)
	w := New(dir, func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.RemoveAll(dir))
	// Removal of the watched root fires and forces a re-watch.
	assert.True(t, waitForSignal(changed, 2*time.Second), "expected a signal when the directory vanished")
	for waitForSignal(changed, 200*time.Millisecond) {
	}

	require.NoError(t, os.Mkdir(dir, 0o755))
	// The backoff loop needs a moment to pick the directory back up.
	time.Sleep(1500 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "back.png"), []byte("x"), 0o644))
	assert.True(t, waitForSignal(changed, 5*time.Second), "expected signals to resume after recreation")
}

func TestWatcherStop(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0
	w := New(dir, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	w.Start()

	time.Sleep(100 * time.Millisecond)
	w.Stop()
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	before := count
	mu.Unlock()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "after.png"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	after := count
	mu.Unlock()
	assert.Equal(t, before, after, "no signals after Stop")

	// Double stop must be safe.
	w.Stop()
}
