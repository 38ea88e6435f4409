package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fluxo/internal/amqp"
	"fluxo/internal/config"
	"fluxo/internal/core"
	"fluxo/internal/services"
	"fluxo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting generation-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized - run reports will export via export-worker")
		}
	} else {
		logger.Info("AMQP disabled - run reports will not be exported")
	}

	processor := services.NewGenerationProcessor(repo, repo, repo, publisher, cfg.GenerationParallelism)
	loc := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Generation worker configured",
		"interval", cfg.GenerationInterval,
		"timezone", cfg.Timezone,
		"parallelism", cfg.GenerationParallelism,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.GenerationInterval)
	defer ticker.Stop()

	runOnce := func(now time.Time) {
		asOf := core.DateOf(now.In(loc))
		result, err := processor.Run(ctx, asOf)
		if err != nil {
			logger.Error("Generation run failed", "error", err)
			return
		}
		logger.Info("Generation run complete",
			"run_id", result.RunID,
			"as_of", asOf.String(),
			"transactions_created", result.TransactionsCreated,
			"contracts_skipped", result.RulesSkipped,
			"failures", result.Failures)
	}

	// Run once on startup so a restarted worker catches up immediately.
	logger.Info("Running initial generation...")
	runOnce(time.Now())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				runOnce(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down generation-worker...")
	cancel()
	logger.Info("Generation-worker shutdown complete")
}
