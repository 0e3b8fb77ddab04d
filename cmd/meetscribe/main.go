package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/avoronin/meetscribe/internal/api"
	"github.com/avoronin/meetscribe/internal/config"
	"github.com/avoronin/meetscribe/internal/llm"
	"github.com/avoronin/meetscribe/internal/store"
	"github.com/avoronin/meetscribe/internal/ws"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("meetscribe %s (%s)\n", version, commit)
		os.Exit(0)
	}

	// Setup logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// CLI overrides
	if *listenAddr != "" {
		cfg.Server.Listen = *listenAddr
	}

	// Ensure data directories exist
	for _, dir := range []string{filepath.Dir(cfg.Storage.DBPath), cfg.Storage.AudioDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			slog.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// Create store
	dataStore, err := store.NewSQLiteStore(cfg.Storage.DBPath, cfg.Storage.RetentionDays)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	defer dataStore.Close()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	// Warn early when no provider keys are present; uploads still work,
	// the LLM stages just fail until a key is exported.
	if len(cfg.LLM.AvailableProviders(llm.Providers())) == 0 {
		slog.Warn("no LLM API keys configured",
			"hint", "export ANTHROPIC_API_KEY, OPENAI_API_KEY or DEEPSEEK_API_KEY")
	}
	if cfg.Transcription.APIKey == "" {
		slog.Warn("no transcription API key configured", "hint", "export ELEVENLABS_API_KEY")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Retention sweep at startup
	if cfg.Storage.RetentionDays > 0 {
		if deleted, err := dataStore.RunRetention(ctx); err != nil {
			slog.Warn("retention sweep failed", "error", err)
		} else if deleted > 0 {
			slog.Info("retention sweep", "deleted", deleted)
		}
	}

	// Progress hub
	hub := ws.NewHub(cfg, logger)
	go hub.Run(ctx)

	// API server
	server := api.NewServer(api.ServerOptions{
		Config: cfg,
		Store:  dataStore,
		Hub:    hub,
		Logger: logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting meetscribe", "listen", cfg.Server.ListenAddr())
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  API:    http://%s/api\n", cfg.Server.ListenAddr())
	fmt.Fprintf(os.Stderr, "  WS:     ws://%s/ws\n", cfg.Server.ListenAddr())
	fmt.Fprintf(os.Stderr, "  DB:     %s\n", cfg.Storage.DBPath)
	fmt.Fprintf(os.Stderr, "  Audio:  %s\n", cfg.Storage.AudioDir)
	fmt.Fprintf(os.Stderr, "  Token:  %s\n", cfg.Auth.Token)
	fmt.Fprintf(os.Stderr, "\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
	}

	slog.Info("meetscribe shutdown complete")
}
