// Package rootfolder reports on the configured destination roots.
package rootfolder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/library/catalog"
)

var (
	ErrPathNotFound     = errors.New("path does not exist")
	ErrPathNotDirectory = errors.New("path is not a directory")
)

// RootFolder is a destination root as seen on disk.
type RootFolder struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Exists      bool   `json:"exists"`
	SeriesCount int    `json:"seriesCount"`
	Error       string `json:"error,omitempty"`
}

// CatalogSource provides the current catalog snapshot.
type CatalogSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Service provides root folder operations.
type Service struct {
	roots   catalog.RootsFunc
	catalog CatalogSource
	logger  zerolog.Logger
}

// NewService creates a new root folder service.
func NewService(roots catalog.RootsFunc, cat CatalogSource, logger zerolog.Logger) *Service {
	return &Service{
		roots:   roots,
		catalog: cat,
		logger:  logger.With().Str("component", "rootfolder").Logger(),
	}
}

// List returns every configured destination in order with its series count.
func (s *Service) List(ctx context.Context) ([]*RootFolder, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range snap.All() {
		counts[e.Destination]++
	}

	roots := s.roots()
	folders := make([]*RootFolder, 0, len(roots))
	for _, root := range roots {
		rf := &RootFolder{
			Path:        root,
			Name:        filepath.Base(root),
			SeriesCount: counts[root],
		}
		if err := Validate(root); err != nil {
			rf.Error = err.Error()
			s.logger.Debug().Err(err).Str("path", root).Msg("Destination unavailable")
		} else {
			rf.Exists = true
		}
		folders = append(folders, rf)
	}
	return folders, nil
}

// Validate checks that path exists and is a directory.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathNotDirectory, path)
	}
	return nil
}
