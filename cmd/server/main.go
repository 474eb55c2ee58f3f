// Package main provides the ingestion engine entry point: initial scan,
// filesystem watcher, record-store poller, and the HTTP search API.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arigen-tech/docstream/internal/api"
	"github.com/arigen-tech/docstream/internal/config"
	"github.com/arigen-tech/docstream/internal/crypto"
	"github.com/arigen-tech/docstream/internal/extract"
	"github.com/arigen-tech/docstream/internal/index"
	"github.com/arigen-tech/docstream/internal/ingest"
	"github.com/arigen-tech/docstream/internal/records"
	"github.com/arigen-tech/docstream/internal/watch"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(getEnv("DOCSTREAM_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Connect to the canonical record store
	store, err := records.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to record store: %v", err)
	}
	defer store.Close()

	// Open the search index
	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		log.Fatalf("failed to open search index: %v", err)
	}
	defer idx.Close()

	var cipher *crypto.Cipher
	if cfg.EncryptionKey != "" {
		cipher, err = crypto.New(crypto.KeyFromString(cfg.EncryptionKey))
		if err != nil {
			log.Fatalf("failed to create cipher: %v", err)
		}
	}

	failLog, err := ingest.OpenFailLog(cfg.FailedLogPath)
	if err != nil {
		log.Fatalf("failed to open failed-file log: %v", err)
	}

	registry := extract.NewRegistry()
	coordinator := ingest.NewCoordinator(store, idx, registry, cipher, failLog, logger)

	// Sweep the roots once before the watcher and poller take over
	if _, err := coordinator.ScanAll(ctx, cfg.Roots); err != nil {
		logger.Warn("initial scan did not complete", "error", err)
	}

	watcher := watch.NewWatcher(cfg.Roots, registry.Supported, nil, logger)
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watcher stopped", "error", err)
		}
	}()

	poller := watch.NewPoller(store, coordinator, failLog, cfg.Roots, cfg.PollInterval, cfg.AbandonAfter, logger)
	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("poller stopped", "error", err)
		}
	}()

	// HTTP API with graceful shutdown tied to the signal context
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewServer(idx, store, logger).Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	log.Printf("Starting HTTP server on %s (search at /search/all, health at /health)", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
