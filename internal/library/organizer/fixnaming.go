package organizer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/library/audit"
	"github.com/tana/tana/internal/pathutil"
	"github.com/tana/tana/internal/websocket"
)

// FixNaming renames files in place as proposed by the audit. Each fix is
// checked on its own; one failure does not stop the others.
func (s *Service) FixNaming(ctx context.Context, fixes []audit.FixProposal) ([]FixResult, error) {
	if len(fixes) == 0 {
		return nil, ErrNoFixes
	}

	lib := s.settings.Library()
	batchID := uuid.NewString()
	results := make([]FixResult, 0, len(fixes))

	for _, fix := range fixes {
		results = append(results, s.fixOne(ctx, batchID, lib.HasDestination(fix.Destination), fix))
	}

	fixed := 0
	for _, r := range results {
		if r.Success {
			fixed++
		}
	}
	s.logger.Info().Int("fixed", fixed).Int("requested", len(fixes)).Msg("Applied naming fixes")

	s.finish(websocket.EventFilesOrganized, map[string]any{
		"batchId": batchID,
		"renamed": fixed,
	})
	return results, nil
}

func (s *Service) fixOne(ctx context.Context, batchID string, allowed bool, fix audit.FixProposal) FixResult {
	res := FixResult{Current: fix.Current}

	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}
	if !allowed {
		res.Error = ErrDestinationNotAllowed.Error()
		return res
	}

	expected := strings.TrimSpace(fix.Expected)
	if !pathutil.IsSafeFilename(fix.SeriesName, fix.Destination) || strings.ContainsAny(fix.SeriesName, `/\`) {
		res.Error = ErrUnsafePath.Error()
		return res
	}
	seriesDir := filepath.Join(fix.Destination, fix.SeriesName)
	if !isPlainName(fix.Current) || !isPlainName(expected) {
		res.Error = ErrUnsafePath.Error()
		return res
	}

	currentPath := filepath.Join(seriesDir, fix.Current)
	expectedPath := filepath.Join(seriesDir, expected)

	if !isRegularFile(currentPath) {
		res.Error = ErrFileNotFound.Error()
		return res
	}

	if err := s.RenameFile(ctx, currentPath, expectedPath); err != nil {
		res.Error = err.Error()
		return res
	}

	s.record(ctx, batchID, history.ActionFixNaming, history.RenameData{
		Series:   fix.SeriesName,
		Current:  fix.Current,
		Expected: expected,
	})

	res.Expected = expected
	res.Success = true
	return res
}

// isPlainName reports whether name is a single path component.
func isPlainName(name string) bool {
	return name != "" && name != "." && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}
