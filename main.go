package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/sordb/internal/config"
	"github.com/msomdec/sordb/internal/handler"
	"github.com/msomdec/sordb/internal/repository/sqlite"
	"github.com/msomdec/sordb/internal/service"
	"github.com/spf13/cobra"
)

var (
	flagPort    string
	flagDataDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sordb",
		Short: "SQLite databases behind a REST API",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sordb server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&flagPort, "port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "database file directory (overrides DATA_DIR)")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagPort != "" {
		cfg.Port = flagPort
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	directory := sqlite.NewDirectory(cfg.DataDir)
	defer directory.Close()
	registry := service.NewRegistry(directory)

	var tokens *service.Tokens
	if cfg.TokenSecret != "" {
		tokens = service.NewTokens(cfg.TokenSecret, 15*time.Minute)
	}

	var limiter *service.TokenBucket
	if cfg.RateLimitRPS > 0 {
		limiter = service.NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitRPS*2)
		defer limiter.Close()
	}

	auth := handler.NewAuth(cfg.APIKey, cfg.APIKeyHash, tokens)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, registry, directory, auth, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Recover(handler.SecurityHeaders(handler.RateLimit(limiter, mux))),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "data_dir", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
