package watcher

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/websocket"
)

// Invalidator drops the cached catalog snapshot.
type Invalidator interface {
	Invalidate()
}

// Broadcaster pushes events to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Service watches every destination root and invalidates the catalog when
// a series folder appears, disappears or is renamed.
type Service struct {
	watcher *Watcher
	roots   catalog.RootsFunc
	catalog Invalidator
	hub     Broadcaster
	logger  zerolog.Logger

	// Roots currently watched, keyed by absolute path
	watched map[string]bool
	mu      sync.RWMutex
}

// NewService creates a new watcher service.
func NewService(roots catalog.RootsFunc, cat Invalidator, logger zerolog.Logger) (*Service, error) {
	return NewServiceWithConfig(DefaultConfig(), roots, cat, logger)
}

// NewServiceWithConfig is NewService with explicit watcher settings.
func NewServiceWithConfig(config Config, roots catalog.RootsFunc, cat Invalidator, logger zerolog.Logger) (*Service, error) {
	watcher, err := New(config, logger)
	if err != nil {
		return nil, err
	}

	s := &Service{
		watcher: watcher,
		roots:   roots,
		catalog: cat,
		logger:  logger.With().Str("component", "watcher-service").Logger(),
		watched: make(map[string]bool),
	}

	watcher.SetHandler(s.handleEvents)
	return s, nil
}

// SetBroadcaster sets the event hub.
func (s *Service) SetBroadcaster(hub Broadcaster) {
	s.hub = hub
}

// Start begins watching all configured destination roots.
func (s *Service) Start(ctx context.Context) error {
	if err := s.RefreshWatches(ctx); err != nil {
		return err
	}

	s.watcher.Start()

	s.logger.Info().Int("rootCount", len(s.WatchedRoots())).Msg("Watcher service started")
	return nil
}

// Stop stops the watcher service.
func (s *Service) Stop() error {
	return s.watcher.Stop()
}

// RefreshWatches brings the watch list in line with the configured roots.
// Roots that cannot be watched are logged and skipped.
func (s *Service) RefreshWatches(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	want := make(map[string]bool)
	for _, root := range s.roots() {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		want[abs] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for path := range s.watched {
		if !want[path] {
			if err := s.watcher.RemovePath(path); err != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove watch")
			}
			delete(s.watched, path)
		}
	}

	for path := range want {
		if s.watched[path] {
			continue
		}
		if err := s.watcher.AddPath(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to watch destination")
			continue
		}
		s.watched[path] = true
	}
	return nil
}

// WatchedRoots returns the roots currently watched.
func (s *Service) WatchedRoots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.watched))
	for path := range s.watched {
		paths = append(paths, path)
	}
	return paths
}

// IsWatching reports whether root is watched.
func (s *Service) IsWatching(root string) bool {
	abs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watched[abs]
}

// handleEvents invalidates the catalog once per batch of folder changes.
func (s *Service) handleEvents(events []FolderEvent) {
	if len(events) == 0 {
		return
	}
	for _, event := range events {
		s.logger.Debug().
			Str("root", event.Root).
			Str("folder", event.Folder).
			Str("op", string(event.Op)).
			Msg("Destination changed")
	}

	s.catalog.Invalidate()
	s.logger.Info().Int("changes", len(events)).Msg("Catalog invalidated by filesystem change")

	if s.hub != nil {
		_ = s.hub.Broadcast(websocket.EventCatalogInvalidated, map[string]any{
			"reason":  "watcher",
			"changes": len(events),
		})
	}
}
