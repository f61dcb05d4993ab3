package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"plazabi/internal/amqp"
	"plazabi/internal/cli"
	"plazabi/internal/worker"
)

// backfillInterval bounds how stale the records index can get when events
// are lost while the worker is down.
const backfillInterval = 15 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting plazabi-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the index worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	indexWorker := worker.NewIndexWorker(repo, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, rebuild the index so events missed while down are not lost.
	logger.Info("Performing startup index backfill...")
	if err := indexWorker.Backfill(ctx); err != nil {
		logger.Error("Startup backfill failed", "error", err)
		// Keep running; consumption repairs the index incrementally.
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeRecordEvents(gctx, func(msg *amqp.RecordEventMessage) error {
			return indexWorker.HandleRecordEvent(gctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(backfillInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := indexWorker.Backfill(gctx); err != nil {
					logger.Error("Periodic backfill failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			return context.Canceled
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
