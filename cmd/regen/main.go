// Command regen regenerates benchmark result artifacts.
//
// Subcommands:
//
//	run    execute the full container pipeline and commit the artifact set
//	index  rebuild the markdown indices from the results already on disk
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"dagger.io/dagger"

	"github.com/JeffersGlass/benchmarking/pkg/config"
	"github.com/JeffersGlass/benchmarking/pkg/gitops"
	"github.com/JeffersGlass/benchmarking/pkg/results"
	"github.com/JeffersGlass/benchmarking/pkg/trigger"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	args := os.Args[1:]
	sub := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("regen "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	repoDir := fs.String("repo-dir", "", "results repository working copy (overrides config)")
	force := fs.Bool("force", false, "regenerate outputs even if they already exist")
	dryRun := fs.Bool("dry-run", false, "run generation but do not commit results")
	actor := fs.String("actor", "", "identity the commit is attributed to (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if *repoDir != "" {
		cfg.RepoDir = *repoDir
	}
	if *actor != "" {
		cfg.Actor = *actor
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch sub {
	case "run":
		err = runPipeline(ctx, cfg, *force, *dryRun, logger)
	case "index":
		err = runIndex(cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q (want run or index)\n", sub)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("regeneration failed", "error", err)
		os.Exit(1)
	}
}

func runPipeline(ctx context.Context, cfg *config.Config, force, dryRun bool, logger *slog.Logger) error {
	logger.Info("connecting to dagger")
	dag, err := dagger.Connect(ctx, dagger.WithLogOutput(os.Stderr))
	if err != nil {
		return fmt.Errorf("connect to dagger: %w", err)
	}
	defer dag.Close()

	repo, err := gitops.New(cfg.RepoDir)
	if err != nil {
		return err
	}

	pipeline, err := trigger.NewPipeline(dag, cfg, repo, logger)
	if err != nil {
		return err
	}

	rec, err := pipeline.Run(ctx, &trigger.RunOptions{
		Force:  force,
		DryRun: dryRun,
		Actor:  cfg.Actor,
	})
	if err != nil {
		return err
	}
	if rec.Commit != "" {
		logger.Info("results committed", "commit", rec.Commit)
	}
	return nil
}

func runIndex(cfg *config.Config, logger *slog.Logger) error {
	resultsDir := filepath.Join(cfg.RepoDir, "results")

	removed, err := results.PruneOutdated(resultsDir, cfg.Bases)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		logger.Info("pruned outdated comparison files", "count", len(removed))
	}

	all, err := results.LoadAll(resultsDir)
	if err != nil {
		return err
	}
	logger.Info("loaded results", "count", len(all), "bases", strings.Join(cfg.Bases, ", "))

	return results.GenerateIndices(cfg.RepoDir, cfg.Bases, all)
}
