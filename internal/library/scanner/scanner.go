package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/library/catalog"
)

// SourceFile is a comic archive waiting in the source directory.
type SourceFile struct {
	Name        string         `json:"name"`
	Size        int64          `json:"size"`
	SizeHuman   string         `json:"sizeHuman"`
	Extension   string         `json:"extension"`
	Tome        *int           `json:"tome"`
	SeriesGuess string         `json:"seriesGuess"`
	SeriesMatch *catalog.Entry `json:"seriesMatch"`
	MatchScore  float64        `json:"matchScore"`
}

// ScanError represents an error during scanning.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanResult contains the results of scanning a source directory.
type ScanResult struct {
	Source string       `json:"source"`
	Files  []SourceFile `json:"files"`
	Errors []ScanError  `json:"errors"`
}

// CatalogSource provides catalog snapshots.
type CatalogSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Service lists source files and suggests where they belong.
type Service struct {
	catalog CatalogSource
	logger  *zerolog.Logger
}

// NewService creates a new scanner service.
func NewService(catalog CatalogSource, logger *zerolog.Logger) *Service {
	subLogger := logger.With().Str("component", "scanner").Logger()
	return &Service{
		catalog: catalog,
		logger:  &subLogger,
	}
}

// ScanSource lists comic files under dir recursively, sorted by path.
// Anything below a dot-prefixed component is skipped, which hides the trash.
// A missing directory yields an empty result.
func (s *Service) ScanSource(ctx context.Context, dir string) (*ScanResult, error) {
	result := &ScanResult{
		Source: dir,
		Files:  make([]SourceFile, 0),
		Errors: make([]ScanError, 0),
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return result, nil //nolint:nilerr // A missing source is an empty listing
	}

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			result.Errors = append(result.Errors, ScanError{Path: path, Error: walkErr.Error()})
			return nil //nolint:nilerr // Record error but continue scanning
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && IsComicFile(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	for _, path := range paths {
		file, statErr := s.describe(dir, path, snap)
		if statErr != nil {
			result.Errors = append(result.Errors, ScanError{Path: path, Error: statErr.Error()})
			continue
		}
		result.Files = append(result.Files, file)
	}

	s.logger.Debug().
		Str("source", dir).
		Int("files", len(result.Files)).
		Int("errors", len(result.Errors)).
		Msg("Source scan completed")

	return result, nil
}

func (s *Service) describe(dir, path string, snap *catalog.Snapshot) (SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceFile{}, err
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return SourceFile{}, err
	}

	base := filepath.Base(path)
	detection := ParseFilename(base)
	match := snap.FindBest(detection.SeriesGuess, catalog.DefaultThreshold)

	return SourceFile{
		Name:        filepath.ToSlash(rel),
		Size:        info.Size(),
		SizeHuman:   humanize.IBytes(uint64(info.Size())), //nolint:gosec // file sizes are non-negative
		Extension:   Ext(base),
		Tome:        detection.Tome,
		SeriesGuess: detection.SeriesGuess,
		SeriesMatch: match.Entry,
		MatchScore:  math.Round(match.Score*100) / 100,
	}, nil
}

// Detect parses a single filename and matches its series guess against the
// catalog.
func (s *Service) Detect(ctx context.Context, filename string) (Detection, catalog.Match, error) {
	detection := ParseFilename(filename)
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return detection, catalog.Match{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	return detection, snap.FindBest(detection.SeriesGuess, catalog.DefaultThreshold), nil
}

// ErrNotComicFile is returned by ScanFile for unsupported extensions.
var ErrNotComicFile = errors.New("not a comic archive")

// ScanFile describes a single file relative to its directory.
func (s *Service) ScanFile(ctx context.Context, filePath string) (*SourceFile, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, os.ErrInvalid
	}
	if !IsComicFile(filePath) {
		return nil, ErrNotComicFile
	}

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	file, err := s.describe(filepath.Dir(filePath), filePath, snap)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
