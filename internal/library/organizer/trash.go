package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/pathutil"
	"github.com/tana/tana/internal/websocket"
)

// Delete moves a source file into the source directory's trash folder,
// keeping its relative path. A previous trash copy is replaced.
func (s *Service) Delete(ctx context.Context, sourceDir, filename string) error {
	sourceDir = sourceDirOr(sourceDir, s.settings.Library().SourceDir)
	filename = strings.TrimSpace(filename)

	if !pathutil.IsSafeFilename(filename, sourceDir) {
		return ErrUnsafePath
	}

	filePath := filepath.Join(sourceDir, filepath.FromSlash(filename))
	if !isRegularFile(filePath) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, filename)
	}

	trashPath := filepath.Join(sourceDir, TrashDir, filepath.FromSlash(filename))
	if err := os.Remove(trashPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to replace trashed file: %w", err)
	}

	if err := s.MoveFile(ctx, filePath, trashPath); err != nil {
		return err
	}

	s.record(ctx, "", history.ActionDelete, history.TrashData{Filename: filename, SourceDir: sourceDir})
	s.finish(websocket.EventFilesDeleted, map[string]any{"filename": filename, "deleted": true})
	return nil
}

// Undelete restores a file from the trash folder to its original place.
func (s *Service) Undelete(ctx context.Context, sourceDir, filename string) error {
	sourceDir = sourceDirOr(sourceDir, s.settings.Library().SourceDir)
	filename = strings.TrimSpace(filename)

	if !pathutil.IsSafeFilename(filename, sourceDir) {
		return ErrUnsafePath
	}

	trashPath := filepath.Join(sourceDir, TrashDir, filepath.FromSlash(filename))
	restorePath := filepath.Join(sourceDir, filepath.FromSlash(filename))

	if !isRegularFile(trashPath) {
		return fmt.Errorf("%w: %s", ErrNotInTrash, filename)
	}

	if err := s.MoveFile(ctx, trashPath, restorePath); err != nil {
		return err
	}

	s.record(ctx, "", history.ActionUndelete, history.TrashData{Filename: filename, SourceDir: sourceDir})
	s.finish(websocket.EventFilesDeleted, map[string]any{"filename": filename, "deleted": false})
	return nil
}
