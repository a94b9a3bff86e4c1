package api

import (
	"github.com/labstack/echo/v4"

	"github.com/tana/tana/internal/api/handlers"
	"github.com/tana/tana/internal/filesystem"
	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/library/rootfolder"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")

	// Source files
	api.GET("/files", s.listFiles)
	api.POST("/files/delete", s.deleteFile)
	api.POST("/files/undelete", s.undeleteFile)
	api.POST("/detect", s.detect)
	api.POST("/detect-tome", s.detectTome)

	// Catalog
	api.GET("/series", s.listSeries)
	api.GET("/series/search", s.searchSeries)
	rootfolder.NewHandlers(s.rootFolderService).RegisterRoutes(api.Group("/destinations"))

	// Organizing
	api.POST("/organize", s.organize)
	api.POST("/organize/matched", s.organizeMatched)

	// CBR to CBZ conversion
	api.GET("/convert/scan", s.scanCBR)
	api.POST("/convert", s.convertFiles)

	// Audit
	api.GET("/audit", s.runAudit)
	api.GET("/audit/export", s.exportAudit)
	api.POST("/audit/fix-naming", s.fixNaming)

	// Templates and settings
	api.POST("/template/preview", s.previewTemplate)
	api.GET("/config", s.getConfig)
	api.PUT("/config", s.updateConfig)

	history.NewHandlers(s.historyService).RegisterRoutes(api.Group("/history"))
	filesystem.NewHandlers(s.filesystemService).RegisterRoutes(api.Group("/filesystem"))

	s.setupSystemRoutes(api)

	api.GET("/ws", s.hub.HandleWebSocket)
}

func (s *Server) setupSystemRoutes(api *echo.Group) {
	system := api.Group("/system")
	system.GET("/status", s.getStatus)

	NewLogsHandlers(s.logs, s.store.Config().Logging).RegisterRoutes(system.Group("/logs"))

	schedulerHandler := handlers.NewSchedulerHandler(s.scheduler)
	system.GET("/tasks", schedulerHandler.ListTasks)
	system.GET("/tasks/:id", schedulerHandler.GetTask)
	system.POST("/tasks/:id/run", schedulerHandler.RunTask)
}
