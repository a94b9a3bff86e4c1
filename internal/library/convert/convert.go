// Package convert repackages CBR (RAR) comics as CBZ (ZIP) archives.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/library/scanner"
	"github.com/tana/tana/internal/pathutil"
	"github.com/tana/tana/internal/websocket"
)

const (
	extCBR = ".cbr"
	extCBZ = ".cbz"
)

// Settings provides the live library configuration.
type Settings interface {
	Library() config.LibraryConfig
}

// HistoryLogger records completed conversions.
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

// Service finds and converts CBR archives.
type Service struct {
	settings Settings
	history  HistoryLogger
	catalog  Invalidator
	hub      Broadcaster
	logger   zerolog.Logger
}

// NewService creates a new conversion service. hist and cat may be nil.
func NewService(settings Settings, hist HistoryLogger, cat Invalidator, logger zerolog.Logger) *Service {
	return &Service{
		settings: settings,
		history:  hist,
		catalog:  cat,
		logger:   logger.With().Str("component", "convert").Logger(),
	}
}

// SetBroadcaster sets the event hub.
func (s *Service) SetBroadcaster(hub Broadcaster) {
	s.hub = hub
}

// Scan lists the CBR files below dir, grouped by folder. Hidden folders
// are skipped.
func (s *Service) Scan(ctx context.Context, dir string) (*ScanResult, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, ErrPathRequired
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}

	result := &ScanResult{Path: base, Groups: []Group{}}
	index := make(map[string]int)

	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Debug().Err(err).Str("path", p).Msg("Skipping unreadable path")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != base && catalog.IsHiddenFolder(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if scanner.Ext(d.Name()) != extCBR {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		file := CBRFile{
			Name:      d.Name(),
			Path:      p,
			Size:      info.Size(),
			SizeHuman: humanize.IBytes(uint64(info.Size())), //nolint:gosec // file sizes are non-negative
			HasCBZ:    exists(cbzPathFor(p)),
		}
		if tome, ok := scanner.DetectTome(d.Name()); ok {
			file.Tome = &tome
		}

		folder := filepath.Dir(p)
		i, ok := index[folder]
		if !ok {
			g := Group{Folder: folder, IsRoot: folder == base}
			if !g.IsRoot {
				g.SeriesName = filepath.Base(folder)
			}
			result.Groups = append(result.Groups, g)
			i = len(result.Groups) - 1
			index[folder] = i
		}
		result.Groups[i].Files = append(result.Groups[i].Files, file)
		result.Total++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Convert repackages each CBR file as a CBZ next to it. Files must lie in
// the source directory or a destination. Failures are reported per file.
func (s *Service) Convert(ctx context.Context, paths []string, deleteOriginal bool) ([]Result, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	lib := s.settings.Library()
	roots := append([]string{lib.SourceDir}, lib.Destinations...)
	batchID := uuid.NewString()
	results := make([]Result, 0, len(paths))

	for _, p := range paths {
		results = append(results, s.convertOne(ctx, batchID, roots, strings.TrimSpace(p), deleteOriginal))
	}

	converted := Succeeded(results)
	s.logger.Info().
		Int("converted", converted).
		Int("requested", len(paths)).
		Bool("deleteOriginal", deleteOriginal).
		Msg("Converted CBR files")

	if converted > 0 {
		if s.catalog != nil {
			s.catalog.Invalidate()
		}
		if s.hub != nil {
			_ = s.hub.Broadcast(websocket.EventFilesConverted, map[string]any{"converted": converted})
			_ = s.hub.Broadcast(websocket.EventCatalogInvalidated, map[string]string{"reason": websocket.EventFilesConverted})
		}
	}
	return results, nil
}

func (s *Service) convertOne(ctx context.Context, batchID string, roots []string, cbrPath string, deleteOriginal bool) Result {
	res := Result{Source: filepath.Base(cbrPath)}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if cbrPath == "" || scanner.Ext(cbrPath) != extCBR || !isRegularFile(cbrPath) {
		return fail(ErrNotCBR)
	}
	if !insideAny(cbrPath, roots) {
		return fail(ErrUnsafePath)
	}

	cbzPath, pages, err := s.ConvertFile(ctx, cbrPath)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", cbrPath).Msg("Conversion failed")
		return fail(err)
	}
	res.Destination = filepath.Base(cbzPath)
	res.Pages = pages

	if deleteOriginal {
		if err := os.Remove(cbrPath); err != nil {
			return fail(fmt.Errorf("converted but failed to delete original: %w", err))
		}
	}

	if s.history != nil {
		_ = s.history.Log(context.WithoutCancel(ctx), batchID, history.ActionConvert, history.ConvertData{
			Source:          cbrPath,
			Destination:     cbzPath,
			Pages:           pages,
			DeletedOriginal: deleteOriginal,
		})
	}

	res.Success = true
	return res
}

// ConvertFile writes a CBZ beside cbrPath holding the same files and returns
// its path and entry count. An existing CBZ is never replaced and a failed
// conversion leaves nothing behind.
func (s *Service) ConvertFile(ctx context.Context, cbrPath string) (string, int, error) {
	cbzPath := cbzPathFor(cbrPath)
	if exists(cbzPath) {
		return "", 0, fmt.Errorf("%w: %s", ErrTargetExists, filepath.Base(cbzPath))
	}

	// Dot-prefixed so listings skip it while it is being written.
	tmp, err := os.CreateTemp(filepath.Dir(cbrPath), ".tana-convert-*"+extCBZ)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	pages, err := repack(ctx, cbrPath, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err == nil && exists(cbzPath) {
		err = fmt.Errorf("%w: %s", ErrTargetExists, filepath.Base(cbzPath))
	}
	if err == nil {
		err = os.Rename(tmpPath, cbzPath)
	}
	if err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn().Err(rmErr).Str("path", tmpPath).Msg("Failed to remove temp file")
		}
		return "", 0, err
	}

	s.logger.Debug().Str("source", cbrPath).Int("pages", pages).Msg("Repackaged archive")
	return cbzPath, pages, nil
}

// cbzPathFor swaps the extension of a CBR path for .cbz.
func cbzPathFor(cbrPath string) string {
	return strings.TrimSuffix(cbrPath, filepath.Ext(cbrPath)) + extCBZ
}

func insideAny(p string, roots []string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		rootAbs, err := filepath.Abs(root)
		if err == nil && pathutil.IsWithin(abs, rootAbs) {
			return true
		}
	}
	return false
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
