package organizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultMoveAttempts = 3
	defaultMoveDelay    = 200 * time.Millisecond
)

// MoveFile moves a file, creating the destination directory as needed. It
// never overwrites an existing destination. Transient failures are retried.
func (s *Service) MoveFile(ctx context.Context, sourcePath, destPath string) error {
	s.logger.Debug().
		Str("source", sourcePath).
		Str("dest", destPath).
		Msg("Moving file")

	err := retry.Do(
		func() error { return s.moveOnce(sourcePath, destPath) },
		retry.Context(ctx),
		retry.Attempts(s.moveAttempts),
		retry.Delay(s.moveDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn().Err(err).Uint("attempt", n+1).Str("source", sourcePath).Msg("Retrying move")
		}),
	)
	if err != nil {
		return err
	}
	return nil
}

func (s *Service) moveOnce(sourcePath, destPath string) error {
	if _, err := os.Lstat(destPath); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, filepath.Base(destPath))
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Try rename first (works if same filesystem)
	err := os.Rename(sourcePath, destPath)
	if err == nil {
		s.logger.Info().
			Str("source", sourcePath).
			Str("dest", destPath).
			Msg("Moved file")
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, filepath.Base(sourcePath))
	}
	if !isCrossDeviceError(err) {
		return fmt.Errorf("failed to move file: %w", err)
	}

	// Fall back to copy + delete for cross-filesystem moves
	if err := s.copyFile(sourcePath, destPath); err != nil {
		return err
	}

	if err := os.Remove(sourcePath); err != nil {
		s.logger.Warn().Err(err).Str("path", sourcePath).Msg("Failed to remove source file after copy")
	}

	s.logger.Info().
		Str("source", sourcePath).
		Str("dest", destPath).
		Msg("Moved file (copy + delete)")
	return nil
}

// RenameFile renames a file inside its directory without overwriting.
// A case-only rename of the same file is allowed.
func (s *Service) RenameFile(ctx context.Context, oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}

	if info, err := os.Stat(newPath); err == nil {
		oldInfo, oldErr := os.Stat(oldPath)
		if oldErr != nil || !os.SameFile(info, oldInfo) {
			return fmt.Errorf("%w: %s", ErrTargetExists, filepath.Base(newPath))
		}
	}

	err := retry.Do(
		func() error {
			if err := os.Rename(oldPath, newPath); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("%w: %s", ErrFileNotFound, filepath.Base(oldPath))
				}
				return fmt.Errorf("failed to rename file: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.moveAttempts),
		retry.Delay(s.moveDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("old", oldPath).
		Str("new", newPath).
		Msg("Renamed file")
	return nil
}

// copyFile copies sourcePath to a new file at destPath.
func (s *Service) copyFile(sourcePath, destPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer source.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrTargetExists, filepath.Base(destPath))
		}
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		os.Remove(destPath) // Clean up on failure
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to copy file: %w", err)
	}

	// Copy file permissions
	if sourceInfo, err := os.Stat(sourcePath); err == nil {
		if err := os.Chmod(destPath, sourceInfo.Mode()); err != nil {
			s.logger.Warn().Err(err).Str("path", destPath).Msg("Failed to set file permissions")
		}
	}

	return nil
}

// isTransient reports whether a failed move is worth retrying.
func isTransient(err error) bool {
	return !errors.Is(err, ErrTargetExists) &&
		!errors.Is(err, ErrFileNotFound) &&
		!errors.Is(err, fs.ErrNotExist) &&
		!errors.Is(err, fs.ErrPermission)
}

// isCrossDeviceError checks if an error is a cross-device link error.
func isCrossDeviceError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	switch runtime.GOOS {
	case "windows":
		// ERROR_NOT_SAME_DEVICE
		return strings.Contains(errStr, "not on the same disk")
	default:
		// EXDEV: Cross-device link
		return strings.Contains(errStr, "cross-device")
	}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
