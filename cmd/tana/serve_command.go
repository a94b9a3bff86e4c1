package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tana/tana/internal/api"
	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/database"
	"github.com/tana/tana/internal/logger"
	"github.com/tana/tana/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server, folder watcher and scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), ctx, cfg, cmd)
		},
	}
}

func serve(ctx context.Context, cc *commandContext, cfg *config.Config, cmd *cobra.Command) error {
	logs := logger.NewLogBroadcaster(nil, 1000)
	log := cc.newLogger(cfg, cmd.ErrOrStderr(), true, logs)
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("config", cfg.File).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting Tana")

	if len(cfg.Library.Destinations) == 0 {
		log.Warn().Msg("no destinations configured; set them from the settings page")
	}

	log.Info().Str("path", cfg.Database.Path).Msg("opening database")
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	hub := websocket.NewHub(log.Logger)
	go hub.Run(ctx)

	// Stream logs to clients now that the hub is available
	logs.SetHub(hub)

	store := config.NewStore(cfg, log.Logger)
	server, err := api.NewServer(db.Conn(), hub, store, logs, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}
