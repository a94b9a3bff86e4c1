package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tana/tana/internal/import/renamer"
	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/library/scanner"
)

// CatalogSource provides catalog snapshots.
type CatalogSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// TemplateFunc returns the template that applies to a destination.
type TemplateFunc func(destination string) renamer.Template

// Engine audits every series folder in the catalog.
type Engine struct {
	catalog   CatalogSource
	templates TemplateFunc
	roots     catalog.RootsFunc
	clock     clockwork.Clock
	workers   int
	logger    zerolog.Logger
}

// NewEngine creates an audit engine. Findings follow the order of roots,
// then folder name.
func NewEngine(cat CatalogSource, roots catalog.RootsFunc, templates TemplateFunc, clock clockwork.Clock, logger zerolog.Logger) *Engine {
	return &Engine{
		catalog:   cat,
		templates: templates,
		roots:     roots,
		clock:     clock,
		workers:   runtime.GOMAXPROCS(0),
		logger:    logger.With().Str("component", "audit").Logger(),
	}
}

// Run audits the catalog. Folders are read in parallel; the report keeps
// catalog order.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := e.clock.Now()

	snap, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	entries := e.ordered(snap.All())

	findings := make([]Finding, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dir := filepath.Join(entry.Destination, entry.Name)
			files, err := ListFolder(dir)
			if err != nil {
				e.logger.Warn().Err(err).Str("folder", dir).Msg("Failed to read series folder")
				files = nil
			}
			findings[i] = AuditSeries(entry.Name, entry.Destination, entry.Label, files, e.templates(entry.Destination))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Series:      findings,
		Summary:     Summarize(findings),
		GeneratedAt: e.clock.Now(),
	}

	e.logger.Info().
		Int("series", report.Summary.TotalSeries).
		Int("gaps", report.Summary.SeriesWithGaps).
		Int("naming", report.Summary.SeriesWithNamingIssues).
		Int("duplicates", report.Summary.DuplicateTomes).
		Dur("took", report.GeneratedAt.Sub(start)).
		Msg("Audit completed")

	return report, nil
}

// ordered sorts entries by configured root, then by folder name.
func (e *Engine) ordered(entries []catalog.Entry) []catalog.Entry {
	rank := make(map[string]int)
	for i, root := range e.roots() {
		if _, ok := rank[root]; !ok {
			rank[root] = i
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := rankOf(rank, entries[i].Destination), rankOf(rank, entries[j].Destination)
		if ri != rj {
			return ri < rj
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

func rankOf(rank map[string]int, root string) int {
	if r, ok := rank[root]; ok {
		return r
	}
	return len(rank)
}

// ListFolder returns the comic files directly inside dir, sorted by name,
// with their detected tome.
func ListFolder(dir string) ([]File, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(dirEntries))
	for _, d := range dirEntries {
		if d.IsDir() || !scanner.IsComicFile(d.Name()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		file := File{
			Name:      d.Name(),
			Extension: scanner.Ext(d.Name()),
			Size:      info.Size(),
			SizeHuman: humanize.IBytes(uint64(info.Size())), //nolint:gosec // file sizes are non-negative
		}
		if tome, ok := scanner.DetectTome(d.Name()); ok {
			file.Tome = &tome
		}
		files = append(files, file)
	}
	return files, nil
}
