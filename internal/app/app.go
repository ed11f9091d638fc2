package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/codesync/codesync-server/internal/config"
	"github.com/codesync/codesync-server/internal/core"
	"github.com/codesync/codesync-server/internal/exec"
	"github.com/codesync/codesync-server/internal/store"
	"github.com/codesync/codesync-server/internal/store/sqlite"
	transporthttp "github.com/codesync/codesync-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	docs            store.DocumentStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	docs, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init document store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("document store initialized")

	judge := exec.NewClient(cfg.Judge.Endpoint, cfg.Judge.APIKey, logger)
	if cfg.Judge.APIKey == "" {
		// Not fatal: only execute requests depend on the key.
		logger.Warn().Msg("no judge api key configured; code execution will be unavailable")
	}

	hub := core.NewHub(core.NewRegistry())
	server := transporthttp.NewServer(hub, docs, judge, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		docs:            docs,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the document store and other resources.
func (a *App) cleanup() {
	if a.docs != nil {
		if err := a.docs.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close document store")
		} else {
			a.log.Info().Msg("document store closed")
		}
	}
}
