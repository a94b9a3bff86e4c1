package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long a snapshot is served before the next read rescans.
const DefaultTTL = 30 * time.Second

// RootsFunc returns the current destination roots.
type RootsFunc func() []string

// Index caches the catalog snapshot for a bounded time. Readers receive an
// immutable *Snapshot; Invalidate forces the next read to rescan.
type Index struct {
	mu      sync.Mutex
	snap    *Snapshot
	expires time.Time

	lister Lister
	roots  RootsFunc
	clock  clockwork.Clock
	ttl    time.Duration
	logger zerolog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithClock sets the clock used for expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(i *Index) { i.clock = clock }
}

// WithTTL sets the snapshot lifetime. Zero or negative disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(i *Index) { i.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(i *Index) { i.logger = logger.With().Str("component", "catalog").Logger() }
}

// NewIndex creates a catalog index over the roots returned by roots.
func NewIndex(lister Lister, roots RootsFunc, opts ...Option) *Index {
	i := &Index{
		lister: lister,
		roots:  roots,
		clock:  clockwork.NewRealClock(),
		ttl:    DefaultTTL,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Snapshot returns the cached snapshot, rescanning if it expired or was
// invalidated.
func (i *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.snap != nil && i.clock.Now().Before(i.expires) {
		return i.snap, nil
	}
	return i.rebuildLocked(ctx)
}

// Refresh rescans the destination roots unconditionally.
func (i *Index) Refresh(ctx context.Context) (*Snapshot, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rebuildLocked(ctx)
}

// Invalidate drops the cached snapshot. Entries and normalized keys go
// together since both live in the snapshot.
func (i *Index) Invalidate() {
	i.mu.Lock()
	i.snap = nil
	i.expires = time.Time{}
	i.mu.Unlock()
	i.logger.Debug().Msg("Catalog invalidated")
}

// SetTTL changes the snapshot lifetime for subsequent rebuilds.
func (i *Index) SetTTL(ttl time.Duration) {
	i.mu.Lock()
	i.ttl = ttl
	i.mu.Unlock()
}

// Cached reports whether a fresh snapshot is held.
func (i *Index) Cached() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.snap != nil && i.clock.Now().Before(i.expires)
}

func (i *Index) rebuildLocked(ctx context.Context) (*Snapshot, error) {
	start := i.clock.Now()
	entries, err := i.lister.List(ctx, i.roots())
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	now := i.clock.Now()
	i.snap = NewSnapshot(entries, now)
	i.expires = now.Add(i.ttl)

	i.logger.Debug().
		Int("series", i.snap.Len()).
		Dur("took", now.Sub(start)).
		Msg("Catalog rebuilt")
	return i.snap, nil
}
