// Package watcher keeps the catalog fresh by watching destination roots.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/library/catalog"
)

// Op is the kind of change seen under a root.
type Op string

const (
	OpCreate Op = "create"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// FolderEvent is a change of one entry directly under a watched root.
type FolderEvent struct {
	Root   string `json:"root"`
	Folder string `json:"folder"`
	Op     Op     `json:"op"`
}

// Path returns the full path of the changed entry.
func (e FolderEvent) Path() string {
	return filepath.Join(e.Root, e.Folder)
}

// BatchHandler receives debounced batches of events.
type BatchHandler func(events []FolderEvent)

// Config holds watcher configuration.
type Config struct {
	// DebounceDelay is the quiet period after the last event before a batch
	// is delivered.
	DebounceDelay time.Duration

	// MaxBatchSize forces delivery once this many distinct entries changed.
	MaxBatchSize int
}

// DefaultConfig returns default watcher configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: time.Second,
		MaxBatchSize:  100,
	}
}

// Watcher watches roots non-recursively: the catalog is made of their
// direct subfolders only, so nothing deeper matters.
type Watcher struct {
	fs      *fsnotify.Watcher
	config  Config
	logger  zerolog.Logger
	handler BatchHandler

	mu      sync.Mutex
	pending map[string]FolderEvent
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher. Call SetHandler before Start.
func New(config Config, logger zerolog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = DefaultConfig().MaxBatchSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fs:      fs,
		config:  config,
		logger:  logger.With().Str("component", "watcher").Logger(),
		pending: make(map[string]FolderEvent),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// SetHandler sets the batch handler.
func (w *Watcher) SetHandler(handler BatchHandler) {
	w.handler = handler
}

// Start runs the event loop in the background.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop delivers any pending batch, then releases the fsnotify watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.fs.Close()
}

// AddPath starts watching root.
func (w *Watcher) AddPath(root string) error {
	if err := w.fs.Add(root); err != nil {
		return err
	}
	w.logger.Info().Str("path", root).Msg("Watching destination")
	return nil
}

// RemovePath stops watching root. Removing a root that vanished is not an error.
func (w *Watcher) RemovePath(root string) error {
	if err := w.fs.Remove(root); err != nil && err != fsnotify.ErrNonExistentWatch {
		return err
	}
	w.logger.Info().Str("path", root).Msg("Stopped watching destination")
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			w.flush()
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if fe, keep := toFolderEvent(event); keep {
				w.queue(fe)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// toFolderEvent drops writes, chmods and hidden entries: none of them can
// change the folder list.
func toFolderEvent(event fsnotify.Event) (FolderEvent, bool) {
	folder := filepath.Base(event.Name)
	if catalog.IsHiddenFolder(folder) {
		return FolderEvent{}, false
	}

	fe := FolderEvent{Root: filepath.Dir(event.Name), Folder: folder}
	switch {
	case event.Has(fsnotify.Create):
		fe.Op = OpCreate
	case event.Has(fsnotify.Remove):
		fe.Op = OpRemove
	case event.Has(fsnotify.Rename):
		fe.Op = OpRename
	default:
		return FolderEvent{}, false
	}
	return fe, true
}

// queue records fe, keeping only the latest event per entry, and restarts
// the debounce timer.
func (w *Watcher) queue(fe FolderEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[fe.Path()] = fe
	if len(w.pending) >= w.config.MaxBatchSize {
		w.flushLocked()
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.DebounceDelay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *Watcher) flushLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if len(w.pending) == 0 {
		return
	}

	batch := make([]FolderEvent, 0, len(w.pending))
	for _, fe := range w.pending {
		batch = append(batch, fe)
	}
	w.pending = make(map[string]FolderEvent)

	w.logger.Debug().Int("count", len(batch)).Msg("Delivering folder events")
	if w.handler != nil {
		go w.handler(batch)
	}
}
