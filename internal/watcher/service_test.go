package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

func newTestService(t *testing.T, roots *[]string) (*Service, *countingInvalidator) {
	t.Helper()
	inv := &countingInvalidator{}
	cfg := Config{DebounceDelay: 50 * time.Millisecond, MaxBatchSize: 100}
	svc, err := NewServiceWithConfig(cfg, func() []string { return *roots }, inv, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Stop() })
	return svc, inv
}

func TestService_InvalidatesOnNewSeriesFolder(t *testing.T) {
	root := t.TempDir()
	roots := []string{root}
	svc, inv := newTestService(t, &roots)

	require.NoError(t, svc.Start(context.Background()))
	assert.True(t, svc.IsWatching(root))

	require.NoError(t, os.Mkdir(filepath.Join(root, "Blacksad"), 0o755))

	assert.Eventually(t, func() bool {
		return inv.calls.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestService_IgnoresHiddenFolders(t *testing.T) {
	root := t.TempDir()
	roots := []string{root}
	svc, inv := newTestService(t, &roots)
	require.NoError(t, svc.Start(context.Background()))

	require.NoError(t, os.Mkdir(filepath.Join(root, ".trash"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "@eaDir"), 0o755))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), inv.calls.Load())
}

func TestService_RefreshWatches(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	roots := []string{first}
	svc, _ := newTestService(t, &roots)

	require.NoError(t, svc.RefreshWatches(context.Background()))
	assert.True(t, svc.IsWatching(first))
	assert.False(t, svc.IsWatching(second))

	roots = []string{second, filepath.Join(second, "missing")}
	require.NoError(t, svc.RefreshWatches(context.Background()))
	assert.False(t, svc.IsWatching(first))
	assert.True(t, svc.IsWatching(second))
	assert.Len(t, svc.WatchedRoots(), 1)
}

func TestService_RefreshWatchesCanceled(t *testing.T) {
	roots := []string{t.TempDir()}
	svc, _ := newTestService(t, &roots)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.RefreshWatches(ctx), context.Canceled)
}

func TestToFolderEvent(t *testing.T) {
	root := filepath.Join("library", "manga")
	tests := []struct {
		name   string
		event  fsnotify.Event
		keep   bool
		wantOp Op
	}{
		{"create", fsnotify.Event{Name: filepath.Join(root, "Naruto"), Op: fsnotify.Create}, true, OpCreate},
		{"remove", fsnotify.Event{Name: filepath.Join(root, "Naruto"), Op: fsnotify.Remove}, true, OpRemove},
		{"rename", fsnotify.Event{Name: filepath.Join(root, "Naruto"), Op: fsnotify.Rename}, true, OpRename},
		{"write ignored", fsnotify.Event{Name: filepath.Join(root, "notes.txt"), Op: fsnotify.Write}, false, ""},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(root, "Naruto"), Op: fsnotify.Chmod}, false, ""},
		{"trash ignored", fsnotify.Event{Name: filepath.Join(root, ".trash"), Op: fsnotify.Create}, false, ""},
		{"nas metadata ignored", fsnotify.Event{Name: filepath.Join(root, "@eaDir"), Op: fsnotify.Create}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe, keep := toFolderEvent(tt.event)
			assert.Equal(t, tt.keep, keep)
			if !keep {
				return
			}
			assert.Equal(t, tt.wantOp, fe.Op)
			assert.Equal(t, root, fe.Root)
			assert.Equal(t, tt.event.Name, fe.Path())
		})
	}
}
