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

	"github.com/starford/foldernote/internal/api"
	"github.com/starford/foldernote/internal/index"
	"github.com/starford/foldernote/internal/linkservice"
	"github.com/starford/foldernote/internal/mcpserver"
	"github.com/starford/foldernote/internal/notify"
	"github.com/starford/foldernote/internal/propagate"
	"github.com/starford/foldernote/internal/settings"
	"github.com/starford/foldernote/internal/sse"
	"github.com/starford/foldernote/internal/storage"
	"github.com/starford/foldernote/internal/vault"
)

var errConfigRequired = errors.New("config is required")

// components are shared by every entry point.
type components struct {
	logger *slog.Logger
	db     *index.DB
	svc    *linkservice.Service
}

func (c *components) Close() error {
	return c.db.Close()
}

// open builds the storage, ledger and link service from the configuration.
// extra sinks receive notices alongside the log.
func (app *application) open(extra ...linkservice.Option) (*components, error) {
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("settings_path", cfg.Settings.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	v, err := vault.New(store, cfg.Vault.Exclude)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}

	// Initialize SQLite ledger.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Drop ledger rows for files removed while we were not running.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	opts := append([]linkservice.Option{
		linkservice.WithLogger(logger),
		linkservice.WithNotifier(notify.NewLog(logger)),
	}, extra...)
	svc := linkservice.New(v, settings.NewStore(cfg.Settings.Path), db, opts...)

	return &components{logger: logger, db: db, svc: svc}, nil
}

// Run starts the watcher and the HTTP server and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	app.initLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := app.open(
		linkservice.WithNotifier(notify.Multi{notify.NewLog(app.logger), broker}),
		linkservice.WithPublisher(broker),
	)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher feeding the link service.
	g.Go(func() error {
		if err := index.Watch(gCtx, rt.svc, cfg.Vault.Path, logger); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut down on signal or when another goroutine fails.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Refresh runs one cascade over folder and returns its report. An empty
// folder reuses the last refreshed folder, which defaults to the vault root.
func Refresh(ctx context.Context, folder string, opts ...Option) (propagate.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return propagate.Report{}, err
	}
	app.initLogger(os.Stderr)
	rt, err := app.open()
	if err != nil {
		return propagate.Report{}, err
	}
	defer rt.Close()

	if folder == "" {
		st, err := rt.svc.Settings(ctx)
		if err != nil {
			return propagate.Report{}, err
		}
		folder = st.LastRefreshedFolder
	}
	return rt.svc.Refresh(ctx, folder)
}

// Resolve computes the parent of one document without writing it.
func Resolve(ctx context.Context, path string, opts ...Option) (*linkservice.Resolution, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	app.initLogger(os.Stderr)
	rt, err := app.open()
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	return rt.svc.Resolve(ctx, path)
}

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	// stdout carries the MCP protocol.
	app.initLogger(os.Stderr)
	rt, err := app.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	return mcpserver.New(rt.svc, app.version).ServeStdio()
}

// initLogger installs the structured JSON logger on w unless one was
// supplied through WithLogger.
func (app *application) initLogger(w io.Writer) {
	if app.logger != nil {
		return
	}
	app.logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)
}
