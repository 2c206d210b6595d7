// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pocketpick/internal/api"
	"github.com/starford/pocketpick/internal/inbox"
	"github.com/starford/pocketpick/internal/mcpserver"
	"github.com/starford/pocketpick/internal/models"
	"github.com/starford/pocketpick/internal/pocket"
	"github.com/starford/pocketpick/internal/sse"
	"github.com/starford/pocketpick/internal/store"
)

var errConfigRequired = errors.New("config is required")

// errShutdown cancels the group context so the inbox watcher stops together
// with the HTTP server.
var errShutdown = errors.New("shutdown")

// NewLogger builds the structured JSON logger used by every entry point and
// installs it as the slog default.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP API, the SSE stream and, when configured, the inbox
// watcher. It blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := NewLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Create the schema up front so readiness reflects a usable database.
	db, err := store.Init(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	svc := pocket.NewService(pocket.WithLogger(logger))

	broker := sse.NewBroker()
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.SQLite.Path, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var box *inbox.Inbox
	if cfg.Inbox.Enabled() {
		box, err = inbox.New(inbox.Config{
			Root:     cfg.Inbox.Path,
			DBPath:   cfg.SQLite.Path,
			Tags:     cfg.Inbox.Tags,
			Debounce: cfg.Inbox.Debounce,
		}, svc, logger, func(item *models.PocketItem) {
			broker.PublishItemEvent(item, "inbox")
		})
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		if err := box.Sync(ctx); err != nil {
			logger.Warn("initial inbox sync failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if box != nil {
		g.Go(func() error {
			if err := box.Watch(gCtx); err != nil {
				return fmt.Errorf("inbox watcher: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the pocket tools over MCP on stdin/stdout. Logs go to stderr
// because stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := NewLogger(os.Stderr, cfg.App.LogLevel)
	logger.Info("MCP server starting",
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("fixed_db", app.fixedDB))

	svc := pocket.NewService(pocket.WithLogger(logger))
	if err := mcpserver.New(svc, cfg.SQLite.Path, app.fixedDB).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
