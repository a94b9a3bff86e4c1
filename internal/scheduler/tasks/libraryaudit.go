package tasks

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/library/audit"
	"github.com/tana/tana/internal/scheduler"
	"github.com/tana/tana/internal/websocket"
)

const LibraryAuditTaskID = "library-audit"

// Auditor runs a full collection audit.
type Auditor interface {
	Run(ctx context.Context) (*audit.Report, error)
}

// LibraryAuditTask audits the collection on a schedule and keeps the last
// report for the status endpoint.
type LibraryAuditTask struct {
	auditor Auditor
	hub     Broadcaster
	logger  zerolog.Logger

	mu   sync.RWMutex
	last *audit.Report
}

// NewLibraryAuditTask creates a new library audit task. hub may be nil.
func NewLibraryAuditTask(auditor Auditor, hub Broadcaster, logger zerolog.Logger) *LibraryAuditTask {
	return &LibraryAuditTask{
		auditor: auditor,
		hub:     hub,
		logger:  logger.With().Str("task", LibraryAuditTaskID).Logger(),
	}
}

// Run executes the audit and publishes its summary.
func (t *LibraryAuditTask) Run(ctx context.Context) error {
	t.logger.Info().Msg("Starting scheduled audit")

	report, err := t.auditor.Run(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("Audit failed")
		return err
	}

	t.mu.Lock()
	t.last = report
	t.mu.Unlock()

	s := report.Summary
	t.logger.Info().
		Int("series", s.TotalSeries).
		Int("withGaps", s.SeriesWithGaps).
		Int("withNamingIssues", s.SeriesWithNamingIssues).
		Int("empty", s.EmptyFolders).
		Int("singleFile", s.SingleFileSeries).
		Int("duplicateTomes", s.DuplicateTomes).
		Msg("Scheduled audit completed")

	if t.hub != nil {
		_ = t.hub.Broadcast(websocket.EventAuditCompleted, s)
	}
	return nil
}

// LastSummary returns the summary of the most recent run, if any.
func (t *LibraryAuditTask) LastSummary() (audit.Summary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return audit.Summary{}, false
	}
	return t.last.Summary, true
}

// RegisterLibraryAuditTask registers the audit task and returns it.
func RegisterLibraryAuditTask(sched *scheduler.Scheduler, cron string, auditor Auditor, hub Broadcaster, logger zerolog.Logger) (*LibraryAuditTask, error) {
	task := NewLibraryAuditTask(auditor, hub, logger)

	err := sched.RegisterTask(scheduler.TaskConfig{
		ID:          LibraryAuditTaskID,
		Name:        "Library Audit",
		Description: "Checks every series folder for gaps, duplicates and naming issues",
		Cron:        cron,
		RunOnStart:  false,
		Func:        task.Run,
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}
