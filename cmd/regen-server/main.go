// Command regen-server exposes the regeneration trigger over HTTP so runs
// can be dispatched remotely.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dagger.io/dagger"

	"github.com/JeffersGlass/benchmarking/pkg/api"
	"github.com/JeffersGlass/benchmarking/pkg/config"
	"github.com/JeffersGlass/benchmarking/pkg/gitops"
	"github.com/JeffersGlass/benchmarking/pkg/trigger"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	cfg, err := config.Load(getEnvOrDefault("REGEN_CONFIG", ""))
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger.Info("regeneration server configuration",
		"repo_dir", cfg.RepoDir,
		"tool", cfg.Tool.URL,
		"python", cfg.PythonVersion)

	logger.Info("connecting to dagger")
	dag, err := dagger.Connect(ctx, dagger.WithLogOutput(os.Stderr))
	if err != nil {
		logger.Error("failed to connect to dagger", "error", err)
		os.Exit(1)
	}
	defer dag.Close()

	repo, err := gitops.New(cfg.RepoDir)
	if err != nil {
		logger.Error("failed to open results repository", "error", err)
		os.Exit(1)
	}

	pipeline, err := trigger.NewPipeline(dag, cfg, repo, logger)
	if err != nil {
		logger.Error("failed to create pipeline", "error", err)
		os.Exit(1)
	}

	handlers := api.NewHandlers(pipeline, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/runs", handlers.HandleRuns)
	mux.HandleFunc("/runs/", handlers.HandleRun)
	mux.HandleFunc("/health", handlers.HandleHealth)

	srv := &http.Server{
		Addr:    getEnvOrDefault("REGEN_ADDR", ":8080"),
		Handler: mux,
	}

	go func() {
		logger.Info("starting regeneration server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
