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

	"github.com/lysyi3m/rsxml/internal/api"
	"github.com/lysyi3m/rsxml/internal/cfg"
	"github.com/lysyi3m/rsxml/internal/dispatch"
	"github.com/lysyi3m/rsxml/internal/rsxml"
	"github.com/lysyi3m/rsxml/internal/store"
)

func main() {
	// Load configuration
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	// Setup logging
	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting rsxml server", "version", appCfg.Version)

	// Article store is optional
	var repo store.Repository
	if appCfg.DBPath != "" {
		db, err := store.Open(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = store.New(db)
	} else {
		slog.Info("Article store disabled (DB_PATH not set)")
	}

	// Initialize parse workers
	pool := dispatch.NewPool(appCfg.WorkerCount, appCfg.QueueSize)
	pool.Start()
	defer pool.Stop()

	// Initialize HTTP server
	handler := api.NewHandler(pool, repo, handlerOptions())
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appCfg.ParseTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "workers", appCfg.WorkerCount, "queue_size", appCfg.QueueSize)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

// handlerOptions builds the API handler settings from the loaded configuration.
func handlerOptions() api.Options {
	c := cfg.Get()

	parseOpts := []rsxml.Option{rsxml.WithMinimumLength(c.MinimumLength)}
	if len(c.ProviderMarkers) > 0 {
		parseOpts = append(parseOpts, rsxml.WithProviderMarkers(c.ProviderMarkers...))
	}

	return api.Options{
		ParseTimeout: c.ParseTimeout,
		MaxBodyBytes: c.MaxBodyBytes,
		ParseOptions: parseOpts,
	}
}
