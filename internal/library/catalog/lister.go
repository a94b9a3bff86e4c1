package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Lister discovers series folders under a set of destination roots.
type Lister interface {
	List(ctx context.Context, roots []string) ([]Entry, error)
}

// FSLister lists series folders on the local filesystem.
type FSLister struct {
	logger zerolog.Logger
}

// NewFSLister creates a filesystem lister.
func NewFSLister(logger zerolog.Logger) *FSLister {
	return &FSLister{logger: logger.With().Str("component", "catalog-lister").Logger()}
}

// List returns one entry per series folder, roots in the given order and
// folders sorted by name. Missing roots are skipped.
func (l *FSLister) List(ctx context.Context, roots []string) ([]Entry, error) {
	var entries []Entry
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dirEntries, err := os.ReadDir(root)
		if err != nil {
			if !os.IsNotExist(err) {
				l.logger.Warn().Err(err).Str("root", root).Msg("Failed to read destination")
			}
			continue
		}

		label := filepath.Base(root)
		for _, d := range dirEntries {
			if IsHiddenFolder(d.Name()) || !isDir(root, d) {
				continue
			}
			entries = append(entries, Entry{Name: d.Name(), Destination: root, Label: label})
		}
	}
	return entries, nil
}

// IsHiddenFolder reports whether a folder is excluded from the catalog.
// NAS metadata folders start with "@", dotfolders hold trash and caches.
func IsHiddenFolder(name string) bool {
	return strings.HasPrefix(name, "@") || strings.HasPrefix(name, ".")
}

func isDir(root string, d os.DirEntry) bool {
	if d.Type()&os.ModeSymlink == 0 {
		return d.IsDir()
	}
	info, err := os.Stat(filepath.Join(root, d.Name()))
	return err == nil && info.IsDir()
}
