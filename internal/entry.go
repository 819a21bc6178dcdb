// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/starford/canvasnest/internal/api"
	"github.com/starford/canvasnest/internal/journal"
	"github.com/starford/canvasnest/internal/mcpserver"
	"github.com/starford/canvasnest/internal/models"
	"github.com/starford/canvasnest/internal/noteservice"
	"github.com/starford/canvasnest/internal/relocator"
	"github.com/starford/canvasnest/internal/sse"
	"github.com/starford/canvasnest/internal/storage"
	"github.com/starford/canvasnest/internal/watcher"
	"github.com/starford/canvasnest/internal/workspace"
)

// Run starts the watcher and HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("workspace_source", cfg.Workspace.Source),
		slog.String("log_level", cfg.App.LogLevel.String()))

	lock := flock.New(cfg.App.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another canvasnest instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", slog.String("error", err.Error()))
		}
	}()

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	broker := sse.NewBroker(16)
	defer broker.Close()

	svc := rt.service(noteservice.WithBroker(broker))
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(rt.store.Dir()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"vault unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Each creation event is relocated to completion before the next is read.
	g.Go(func() error {
		return watcher.Watch(gCtx, rt.store, rt.store.Dir(), logger, func(ctx context.Context, e *models.Entry) {
			svc.Handle(ctx, e)
		})
	})

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

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the relocation tools over stdio. Logs go to stderr so they
// do not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	logger := newLogger(app.config, os.Stderr)

	rt, err := newRuntime(app.config, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	srv := mcpserver.New(rt.service())
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio(ctx)
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(cfg *Config, w *os.File) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// runtime holds the components shared by the HTTP daemon and the MCP server.
type runtime struct {
	logger   *slog.Logger
	store    *storage.FS
	journal  *journal.Journal
	ws       relocator.Workspace
	registry *workspace.Registry
}

func newRuntime(cfg *Config, logger *slog.Logger) (*runtime, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}

	rt := &runtime{logger: logger, store: store, journal: j}
	switch cfg.Workspace.Source {
	case workspace.SourceRegistry:
		rt.registry = workspace.NewRegistry(store)
		rt.ws = rt.registry
	default:
		rt.ws = workspace.NewLayout(cfg.Workspace.LayoutPath(store.Dir()), store)
	}
	return rt, nil
}

func (rt *runtime) service(extra ...noteservice.Option) *noteservice.Service {
	opts := []noteservice.Option{
		noteservice.WithJournal(rt.journal),
		noteservice.WithLogger(rt.logger),
	}
	if rt.registry != nil {
		opts = append(opts, noteservice.WithRegistry(rt.registry))
	}
	return noteservice.NewService(rt.store, rt.ws, append(opts, extra...)...)
}

func (rt *runtime) close() {
	if err := rt.journal.Close(); err != nil {
		rt.logger.Warn("failed to close journal", slog.String("error", err.Error()))
	}
}
