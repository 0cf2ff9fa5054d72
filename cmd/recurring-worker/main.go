package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	applog "budget/internal/log"
	"budget/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker, slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(applog.ComponentWorker, cfg.SlogLevel())

	logger.Info("Starting recurring-worker", "interval", cfg.RecurringInterval.String())

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the recurring worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	// Declare the ticks queue so ticks published before the ledger starts are kept
	if err := amqpClient.Bind(cfg.AMQPTicksQueue, amqp.RoutingRecurringTick); err != nil {
		logger.Error("Failed to bind ticks queue", "error", err, "queue", cfg.AMQPTicksQueue)
		amqpClient.Close()
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	ticker := worker.NewTickWorker(amqpClient, cfg.RecurringInterval)
	if err := ticker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Recurring worker failed", "error", err)
	}

	cli.RunCleanup(logger, 10*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
	})
	logger.Info("Recurring worker stopped")
}
