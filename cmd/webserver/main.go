package main

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

	"github.com/olgkv/tasklist/internal/app"
	"github.com/olgkv/tasklist/internal/config"
)

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// runHTTPServer serves until ctx is cancelled or the listener fails, then
// shuts the server down within shutdownTimeout.
func runHTTPServer(ctx context.Context, srv httpServer, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, svc, closeStorage, err := app.NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			slog.Warn("close storage", "error", err)
		}
	}()

	slog.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage)
	runErr := runHTTPServer(ctx, srv, cfg.ShutdownTimeout)

	statsCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if total, completed, err := svc.Stats(statsCtx); err != nil {
		slog.Warn("collect shutdown summary", "error", err)
	} else {
		slog.Info("shutdown summary", "total_tasks", total, "completed_tasks", completed)
	}
	return runErr
}
