package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/scheduler"
	"github.com/tana/tana/internal/websocket"
)

const CatalogRefreshTaskID = "catalog-refresh"

// CatalogRefresher rebuilds the catalog snapshot.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

// Broadcaster pushes events to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// CatalogRefreshTask rebuilds the catalog out of band so requests rarely
// pay for a rescan.
type CatalogRefreshTask struct {
	catalog CatalogRefresher
	hub     Broadcaster
	logger  zerolog.Logger
}

// NewCatalogRefreshTask creates a new catalog refresh task. hub may be nil.
func NewCatalogRefreshTask(cat CatalogRefresher, hub Broadcaster, logger zerolog.Logger) *CatalogRefreshTask {
	return &CatalogRefreshTask{
		catalog: cat,
		hub:     hub,
		logger:  logger.With().Str("task", CatalogRefreshTaskID).Logger(),
	}
}

// Run rebuilds the snapshot.
func (t *CatalogRefreshTask) Run(ctx context.Context) error {
	snap, err := t.catalog.Refresh(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to refresh catalog")
		return err
	}

	t.logger.Debug().Int("series", snap.Len()).Msg("Catalog refreshed")

	if t.hub != nil {
		_ = t.hub.Broadcast(websocket.EventCatalogRefreshed, map[string]any{"series": snap.Len()})
	}
	return nil
}

// RegisterCatalogRefreshTask registers the catalog refresh task with the scheduler.
func RegisterCatalogRefreshTask(sched *scheduler.Scheduler, cron string, cat CatalogRefresher, hub Broadcaster, logger zerolog.Logger) error {
	task := NewCatalogRefreshTask(cat, hub, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          CatalogRefreshTaskID,
		Name:        "Catalog Refresh",
		Description: "Rescans destination folders for series",
		Cron:        cron,
		RunOnStart:  true, // Warm the cache before the first request
		Func:        task.Run,
	})
}
