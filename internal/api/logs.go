//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/logger"
)

// LogsProvider provides access to recent log entries.
type LogsProvider interface {
	Recent(level string, limit int) []logger.LogEntry
}

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	provider LogsProvider
	filePath string
}

// NewLogsHandlers creates a new logs handlers instance. provider may be nil.
func NewLogsHandlers(provider LogsProvider, cfg config.LoggingConfig) *LogsHandlers {
	h := &LogsHandlers{provider: provider}
	if cfg.Path != "" {
		h.filePath = filepath.Join(cfg.Path, logger.FileName)
	}
	return h
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns recent log entries from the ring buffer.
// GET /api/v1/system/logs?level=&limit=
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = v
	}

	var logs []logger.LogEntry
	if h.provider != nil {
		logs = h.provider.Recent(c.QueryParam("level"), limit)
	}
	if logs == nil {
		logs = []logger.LogEntry{}
	}
	return c.JSON(http.StatusOK, logs)
}

// DownloadLogFile serves the current log file for download.
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	if h.filePath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(h.filePath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(h.filePath, logger.FileName)
}
