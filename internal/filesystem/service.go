// Package filesystem lets the settings screen browse for source and
// destination folders.
package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/library/scanner"
)

// Service provides filesystem browsing capabilities
type Service struct {
	logger zerolog.Logger
	root   string
}

// NewService creates a new filesystem service. Browsing starts at root when
// no path is given; an empty root means "/".
func NewService(root string, logger zerolog.Logger) *Service {
	if root == "" {
		root = string(filepath.Separator)
	}
	return &Service{
		logger: logger.With().Str("component", "filesystem").Logger(),
		root:   root,
	}
}

// BrowseDirectory lists the visible sub-directories of path.
func (s *Service) BrowseDirectory(path string) (*BrowseResult, error) {
	if path == "" {
		path = s.root
	}

	cleanPath, err := validatePath(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(cleanPath)
	if err != nil {
		return nil, mapOSError(err)
	}

	result := &BrowseResult{Path: cleanPath, Entries: []DirectoryEntry{}}
	for _, entry := range entries {
		if !entry.IsDir() {
			if scanner.IsComicFile(entry.Name()) {
				result.Comics++
			}
			continue
		}
		if catalog.IsHiddenFolder(entry.Name()) {
			continue
		}
		full := filepath.Join(cleanPath, entry.Name())
		result.Entries = append(result.Entries, DirectoryEntry{
			Name:   entry.Name(),
			Path:   full,
			Comics: s.countComics(full),
		})
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		return strings.ToLower(result.Entries[i].Name) < strings.ToLower(result.Entries[j].Name)
	})

	if parent := filepath.Dir(cleanPath); parent != cleanPath {
		result.Parent = parent
	}

	return result, nil
}

// countComics counts archives directly inside dir. Unreadable directories
// count as empty.
func (s *Service) countComics(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", dir).Msg("Cannot read directory")
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && scanner.IsComicFile(e.Name()) {
			n++
		}
	}
	return n
}

// validatePath cleans path and checks that it is an existing directory.
func validatePath(path string) (string, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil || !filepath.IsAbs(absPath) {
		return "", ErrInvalidPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", mapOSError(err)
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}
	return absPath, nil
}

func mapOSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrPathNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrAccessDenied
	default:
		return ErrInvalidPath
	}
}
