package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	cacheSweep      = time.Minute
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp, slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(applog.ComponentApp, cfg.SlogLevel())

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	comps, err := backend.NewFactory(logger.WithComponent(applog.ComponentLedger).Logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	defer comps.Close()

	responses := cache.NewLRUCache[[]byte](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager()
	caches.Register(responses)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())

	deps := apphttp.Deps{
		Ledger:    comps.Ledger,
		Processor: comps.Processor,
		Cache:     responses,
		Limiter:   limiter,
		Logger:    logger.WithComponent(applog.ComponentHTTP),
	}
	// typed nils would hide the 503 paths
	if comps.Archive != nil {
		deps.Archive = comps.Archive
	}
	if comps.Reports != nil {
		deps.Sheets = comps.Reports
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting ledger server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		caches.Run(gctx, cacheSweep)
		return nil
	})

	if comps.Events != nil {
		if err := comps.Events.Bind(cfg.AMQPTicksQueue, amqp.RoutingRecurringTick); err != nil {
			logger.Error("Failed to bind ticks queue", "error", err, "queue", cfg.AMQPTicksQueue)
			os.Exit(1)
		}
		ticks := worker.NewTickHandler(comps.Processor)
		g.Go(func() error {
			return consumerResult(comps.Events.ConsumeRecurringTicks(gctx, cfg.AMQPTicksQueue, ticks.Handle))
		})

		if comps.Reports != nil {
			if err := comps.Events.Bind(cfg.AMQPEventsQueue, amqp.RoutingLedgerEvents); err != nil {
				logger.Error("Failed to bind events queue", "error", err, "queue", cfg.AMQPEventsQueue)
				os.Exit(1)
			}
			g.Go(func() error {
				return consumerResult(comps.Events.ConsumeLedgerEvents(gctx, cfg.AMQPEventsQueue, comps.Reports.HandleEvent))
			})
		}
	} else {
		logger.Info("AMQP disabled - recurring processing only via POST /api/recurring/process")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Ledger stopped with error", "error", err)
		cancel()
		comps.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// consumerResult treats cancellation as a clean stop.
func consumerResult(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
