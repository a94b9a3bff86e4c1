package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tana/tana/internal/config"
)

type configResponse struct {
	config.Settings
	CacheTTL          string `json:"cacheTtl"`
	Watch             bool   `json:"watch"`
	RefreshCron       string `json:"refreshCron"`
	AuditCron         string `json:"auditCron"`
	HistoryMaxEntries int    `json:"historyMaxEntries"`
	File              string `json:"file"`
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports the server's version and library state.
// GET /api/v1/system/status
func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()

	response := map[string]interface{}{
		"version":      config.Version,
		"startTime":    s.startTime.Format(time.RFC3339),
		"destinations": len(s.store.Destinations()),
		"wsClients":    s.hub.ClientCount(),
		"catalogReady": s.catalog.Cached(),
		"watching":     0,
	}

	if snap, err := s.catalog.Snapshot(ctx); err == nil {
		response["seriesCount"] = snap.Len()
		response["catalogBuiltAt"] = snap.BuiltAt().Format(time.RFC3339)
	} else {
		s.logger.Warn().Err(err).Msg("Failed to load catalog for status")
	}

	if s.watcherService != nil {
		response["watching"] = len(s.watcherService.WatchedRoots())
	}

	if summary, ok := s.auditTask.LastSummary(); ok {
		response["lastAudit"] = summary
	}

	return c.JSON(http.StatusOK, response)
}

// getConfig returns the library settings.
// GET /api/v1/config
func (s *Server) getConfig(c echo.Context) error {
	cfg := s.store.Config()
	lib := cfg.Library

	return c.JSON(http.StatusOK, configResponse{
		Settings:          lib.Settings,
		CacheTTL:          lib.CacheTTL.String(),
		Watch:             lib.Watch,
		RefreshCron:       lib.RefreshCron,
		AuditCron:         lib.AuditCron,
		HistoryMaxEntries: lib.HistoryMaxEntries,
		File:              cfg.File,
	})
}

// updateConfig validates, saves and applies new library settings.
// PUT /api/v1/config
func (s *Server) updateConfig(c echo.Context) error {
	var settings config.Settings
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	saved, err := s.store.Update(settings)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"config":  saved,
	})
}
