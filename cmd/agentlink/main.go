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

	"github.com/freema/agentlink/internal/clients"
	"github.com/freema/agentlink/internal/config"
	"github.com/freema/agentlink/internal/engine"
	"github.com/freema/agentlink/internal/logger"
	"github.com/freema/agentlink/internal/prompts"
	"github.com/freema/agentlink/internal/server"
	"github.com/freema/agentlink/internal/specs"
	"github.com/freema/agentlink/internal/tracing"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println("agentlink", version)
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config
	configPath := os.Getenv("AGENTLINK_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting agentlink", "version", version)

	// Setup tracing
	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Endpoint:     cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		ServiceName:  "agentlink",
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Error("tracing shutdown error", "error", err)
		}
	}()

	// Build the client registry
	source := clients.NewSource(
		cfg.Clients.BuiltinDir,
		os.Getenv(config.ClientsPathEnvVar),
		cfg.Clients.UserDir,
	)
	resolver := specs.NewResolver()
	registry := clients.NewRegistry(source, resolver,
		time.Duration(cfg.Clients.DefaultTimeout)*time.Second,
		time.Duration(cfg.Clients.MaxTimeout)*time.Second,
	)

	rep := registry.Reload()
	slog.Info("client registry loaded", "clients", rep.Loaded, "failures", len(rep.Failures))
	for name, reason := range rep.Failures {
		slog.Warn("client configuration rejected", "client", name, "reason", reason)
	}
	if len(rep.Loaded) == 0 {
		slog.Warn("no clients available", "builtin_dir", cfg.Clients.BuiltinDir, "user_dir", cfg.Clients.UserDir)
	}

	// Prompt template store and execution engine
	store := prompts.NewStore(cfg.Prompts.BaseDir, cfg.Prompts.CacheTTL)
	eng := engine.New(registry, store)

	// Create and start HTTP server
	srv := server.New(cfg, registry, eng, version)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
