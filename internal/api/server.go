package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/tana/tana/internal/api/middleware"
	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/filesystem"
	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/library/audit"
	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/library/convert"
	"github.com/tana/tana/internal/library/organizer"
	"github.com/tana/tana/internal/library/rootfolder"
	"github.com/tana/tana/internal/library/scanner"
	"github.com/tana/tana/internal/scheduler"
	"github.com/tana/tana/internal/scheduler/tasks"
	"github.com/tana/tana/internal/watcher"
	"github.com/tana/tana/internal/websocket"
)

// Server handles HTTP requests for the Tana API.
type Server struct {
	echo      *echo.Echo
	db        *sql.DB
	hub       *websocket.Hub
	store     *config.Store
	logs      LogsProvider
	logger    zerolog.Logger
	startTime time.Time

	// Services
	catalog           *catalog.Index
	scannerService    *scanner.Service
	organizerService  *organizer.Service
	convertService    *convert.Service
	auditEngine       *audit.Engine
	historyService    *history.Service
	rootFolderService *rootfolder.Service
	filesystemService *filesystem.Service
	watcherService    *watcher.Service
	scheduler         *scheduler.Scheduler
	auditTask         *tasks.LibraryAuditTask
}

// NewServer wires every library service around the shared catalog index.
// logs may be nil, in which case the logs endpoint returns an empty list.
func NewServer(db *sql.DB, hub *websocket.Hub, store *config.Store, logs LogsProvider, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		store:     store,
		logs:      logs,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}

	lib := store.Library()
	clock := clockwork.NewRealClock()
	roots := catalog.RootsFunc(store.Destinations)

	s.catalog = catalog.NewIndex(
		catalog.NewFSLister(logger),
		roots,
		catalog.WithClock(clock),
		catalog.WithTTL(lib.CacheTTL),
		catalog.WithLogger(logger),
	)

	s.scannerService = scanner.NewService(s.catalog, &logger)

	s.historyService = history.NewService(db, logger)
	s.historyService.SetMaxEntries(lib.HistoryMaxEntries)

	s.organizerService = organizer.NewService(store, s.historyService, s.catalog, &logger)
	s.organizerService.SetBroadcaster(hub)

	s.convertService = convert.NewService(store, s.historyService, s.catalog, logger)
	s.convertService.SetBroadcaster(hub)

	s.auditEngine = audit.NewEngine(s.catalog, roots, templatesFrom(store), clock, logger)
	s.rootFolderService = rootfolder.NewService(roots, s.catalog, logger)
	s.filesystemService = filesystem.NewService("", logger)

	if lib.Watch {
		watcherSvc, err := watcher.NewService(roots, s.catalog, logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to initialize watcher service")
		} else {
			s.watcherService = watcherSvc
			s.watcherService.SetBroadcaster(hub)
		}
	}

	if err := s.setupScheduler(lib, logger); err != nil {
		return nil, err
	}

	hub.Handle(websocket.MessageCatalogRefresh, func(json.RawMessage) {
		if _, err := s.catalog.Refresh(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("Client requested catalog refresh failed")
		}
	})

	store.OnChange(s.onSettingsChanged)

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupScheduler(lib config.LibraryConfig, logger zerolog.Logger) error {
	sched, err := scheduler.New(logger)
	if err != nil {
		return err
	}

	if err := tasks.RegisterCatalogRefreshTask(sched, lib.RefreshCron, s.catalog, s.hub, logger); err != nil {
		return fmt.Errorf("failed to register catalog refresh: %w", err)
	}
	auditTask, err := tasks.RegisterLibraryAuditTask(sched, lib.AuditCron, s.auditEngine, s.hub, logger)
	if err != nil {
		return fmt.Errorf("failed to register library audit: %w", err)
	}

	s.scheduler = sched
	s.auditTask = auditTask
	return nil
}

// onSettingsChanged runs after the library settings were saved.
func (s *Server) onSettingsChanged(lib config.LibraryConfig) {
	s.catalog.Invalidate()

	if s.watcherService != nil {
		if err := s.watcherService.RefreshWatches(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to re-target watcher")
		}
	}

	_ = s.hub.Broadcast(websocket.EventConfigUpdated, lib.Settings)
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.HTTPErrorHandler = s.errorHandler

	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// Security headers
	s.echo.Use(apimw.SecurityHeaders())

	// Request body size limit (2MB)
	s.echo.Use(middleware.BodyLimit("2M"))

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// Start begins the background services and listens for HTTP requests.
// It blocks until the server stops.
func (s *Server) Start(ctx context.Context, address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")

	if s.watcherService != nil {
		if err := s.watcherService.Start(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to start watcher service")
		}
	}

	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return s.echo.Start(address)
}

// Shutdown gracefully stops the server and its background services.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if s.watcherService != nil {
		if err := s.watcherService.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to stop watcher service")
		}
	}

	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
	}

	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Catalog returns the shared catalog index.
func (s *Server) Catalog() *catalog.Index {
	return s.catalog
}

// Organizer returns the organizer service.
func (s *Server) Organizer() *organizer.Service {
	return s.organizerService
}

// Audit returns the audit engine.
func (s *Server) Audit() *audit.Engine {
	return s.auditEngine
}

// Scheduler returns the task scheduler.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}
