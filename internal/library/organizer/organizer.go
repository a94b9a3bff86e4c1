// Package organizer moves comic files into the catalog and keeps the
// history and the catalog cache in step with what happened on disk.
package organizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/import/renamer"
	"github.com/tana/tana/internal/library/scanner"
	"github.com/tana/tana/internal/pathutil"
	"github.com/tana/tana/internal/websocket"
)

// Settings provides the live library configuration.
type Settings interface {
	Library() config.LibraryConfig
}

// HistoryLogger records completed operations.
type HistoryLogger interface {
	Log(ctx context.Context, batchID string, action history.Action, data any) error
}

// Invalidator drops the cached catalog snapshot.
type Invalidator interface {
	Invalidate()
}

// Broadcaster pushes events to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Service provides file organization operations.
type Service struct {
	settings     Settings
	history      HistoryLogger
	catalog      Invalidator
	hub          Broadcaster
	moveAttempts uint
	moveDelay    time.Duration
	logger       *zerolog.Logger
}

// NewService creates a new organizer service. history and catalog may be nil.
func NewService(settings Settings, hist HistoryLogger, catalog Invalidator, logger *zerolog.Logger) *Service {
	subLogger := logger.With().Str("component", "organizer").Logger()
	return &Service{
		settings:     settings,
		history:      hist,
		catalog:      catalog,
		moveAttempts: defaultMoveAttempts,
		moveDelay:    defaultMoveDelay,
		logger:       &subLogger,
	}
}

// SetBroadcaster sets the event hub.
func (s *Service) SetBroadcaster(hub Broadcaster) {
	s.hub = hub
}

// SetRetry configures how often a failed move is attempted.
func (s *Service) SetRetry(attempts uint, delay time.Duration) {
	if attempts > 0 {
		s.moveAttempts = attempts
	}
	s.moveDelay = delay
}

// Organize moves files into one series folder under a configured destination.
func (s *Service) Organize(ctx context.Context, req OrganizeRequest) (*OrganizeResult, error) {
	lib := s.settings.Library()

	series := strings.TrimSpace(req.SeriesName)
	destination := strings.TrimSpace(req.Destination)
	switch {
	case series == "":
		return nil, ErrSeriesRequired
	case destination == "":
		return nil, ErrDestinationRequired
	case len(req.Files) == 0:
		return nil, ErrNoFiles
	case !lib.HasDestination(destination):
		return nil, fmt.Errorf("%w: %s", ErrDestinationNotAllowed, destination)
	}

	folder := renamer.SanitizeFolderName(series)
	if folder == "" {
		return nil, ErrSeriesRequired
	}
	seriesDir := filepath.Join(destination, folder)
	sourceDir := sourceDirOr(req.SourceDir, lib.SourceDir)

	if info, err := os.Stat(seriesDir); err == nil && info.IsDir() && !req.Force {
		existing, err := listFileNames(seriesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read series folder: %w", err)
		}
		return &OrganizeResult{
			SeriesDir:     seriesDir,
			Results:       []FileResult{},
			Warning:       fmt.Sprintf("folder %q already exists in %s", folder, filepath.Base(destination)),
			ExistingFiles: existing,
		}, nil
	}

	if err := os.MkdirAll(seriesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create series folder: %w", err)
	}

	batchID := uuid.NewString()
	tpl := lib.TemplateFor(destination)
	results := make([]FileResult, 0, len(req.Files))

	for _, f := range req.Files {
		results = append(results, s.placeFile(ctx, placement{
			batchID:   batchID,
			action:    history.ActionOrganize,
			sourceDir: sourceDir,
			source:    f.Source,
			series:    folder,
			seriesDir: seriesDir,
			tome:      f.Tome,
			title:     f.Title,
			template:  tpl,
		}))
	}

	s.logger.Info().
		Str("series", series).
		Str("destination", destination).
		Int("moved", Succeeded(results)).
		Int("requested", len(req.Files)).
		Msg("Organized files")

	s.finish(websocket.EventFilesOrganized, map[string]any{
		"batchId": batchID,
		"series":  series,
		"moved":   Succeeded(results),
	})

	return &OrganizeResult{
		BatchID:   batchID,
		SeriesDir: seriesDir,
		Results:   results,
	}, nil
}

// OrganizeMatched moves a batch of files, each carrying its own series and
// destination. Items that fail validation are reported and skipped.
func (s *Service) OrganizeMatched(ctx context.Context, sourceDir string, items []MatchedItem) ([]FileResult, error) {
	if len(items) == 0 {
		return nil, ErrNoFiles
	}

	lib := s.settings.Library()
	sourceDir = sourceDirOr(sourceDir, lib.SourceDir)
	batchID := uuid.NewString()
	results := make([]FileResult, 0, len(items))

	for _, item := range items {
		series := strings.TrimSpace(item.SeriesName)
		destination := strings.TrimSpace(item.Destination)

		if !pathutil.IsSafeFilename(item.Source, sourceDir) {
			results = append(results, failed(item.Source, ErrUnsafePath))
			continue
		}
		if series == "" || destination == "" {
			results = append(results, failed(item.Source, fmt.Errorf("series or destination missing")))
			continue
		}
		if !lib.HasDestination(destination) {
			results = append(results, failed(item.Source, ErrDestinationNotAllowed))
			continue
		}

		folder := renamer.SanitizeFolderName(series)
		if folder == "" {
			results = append(results, failed(item.Source, ErrSeriesRequired))
			continue
		}
		seriesDir := filepath.Join(destination, folder)
		if err := os.MkdirAll(seriesDir, 0o755); err != nil {
			results = append(results, failed(item.Source, fmt.Errorf("failed to create series folder: %w", err)))
			continue
		}

		results = append(results, s.placeFile(ctx, placement{
			batchID:   batchID,
			action:    history.ActionOrganizeBatch,
			sourceDir: sourceDir,
			source:    item.Source,
			series:    folder,
			seriesDir: seriesDir,
			tome:      item.Tome,
			title:     item.Title,
			template:  lib.TemplateFor(destination),
		}))
	}

	s.logger.Info().
		Int("moved", Succeeded(results)).
		Int("requested", len(items)).
		Msg("Organized matched files")

	s.finish(websocket.EventFilesOrganized, map[string]any{
		"batchId": batchID,
		"moved":   Succeeded(results),
	})
	return results, nil
}

// placement describes one file move. series is the sanitized folder name,
// the same value the audit renders expected names from.
type placement struct {
	batchID   string
	action    history.Action
	sourceDir string
	source    string
	series    string
	seriesDir string
	tome      *int
	title     string
	template  renamer.Template
}

// placeFile renders the target name for one file and moves it.
func (s *Service) placeFile(ctx context.Context, p placement) FileResult {
	if err := ctx.Err(); err != nil {
		return failed(p.source, err)
	}
	if !pathutil.IsSafeFilename(p.source, p.sourceDir) {
		return failed(p.source, ErrUnsafePath)
	}

	sourcePath := filepath.Join(p.sourceDir, filepath.FromSlash(p.source))
	if !isRegularFile(sourcePath) {
		return failed(p.source, ErrFileNotFound)
	}

	newName := renamer.SanitizeFilename(
		p.template.Render(p.series, p.tome, scanner.Ext(sourcePath), strings.TrimSpace(p.title)),
	)
	destPath := filepath.Join(p.seriesDir, newName)

	if _, err := os.Lstat(destPath); err == nil {
		return failed(p.source, fmt.Errorf("%w: %s", ErrTargetExists, newName))
	}

	if err := s.MoveFile(ctx, sourcePath, destPath); err != nil {
		s.logger.Error().Err(err).Str("source", p.source).Msg("Failed to move file")
		return failed(p.source, err)
	}

	s.record(ctx, p.batchID, p.action, history.MoveData{
		Source:      p.source,
		Destination: destPath,
		NewName:     newName,
		Series:      p.series,
	})

	return FileResult{
		Source:      p.source,
		Destination: destPath,
		NewName:     newName,
		Success:     true,
	}
}

func (s *Service) record(ctx context.Context, batchID string, action history.Action, data any) {
	if s.history == nil {
		return
	}
	// The file operation already happened; a history failure is only logged.
	_ = s.history.Log(context.WithoutCancel(ctx), batchID, action, data)
}

// finish invalidates the catalog and tells clients about it.
func (s *Service) finish(event string, payload any) {
	if s.catalog != nil {
		s.catalog.Invalidate()
	}
	if s.hub == nil {
		return
	}
	_ = s.hub.Broadcast(event, payload)
	_ = s.hub.Broadcast(websocket.EventCatalogInvalidated, map[string]string{"reason": event})
}

func sourceDirOr(dir, fallback string) string {
	if dir = strings.TrimSpace(dir); dir != "" {
		return dir
	}
	return fallback
}

func listFileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
